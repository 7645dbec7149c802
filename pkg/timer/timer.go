// Package timer implements the absolute-deadline alarm subsystem of
// spec.md §5 "Timeouts": set_alarm_wakeup(deadline, waker) and
// cancel_alarm(waker). Timer expiry invokes the waker exactly as any other
// wakeup_task call, obeying the §4.3 wake protocol.
//
// Grounded directly on the reference event loop's timerHeap (loop.go): a
// container/heap min-heap keyed by deadline, generalized here from firing a
// callback Task to firing a *task.Waker.
package timer

import (
	"container/heap"
	"time"

	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// AlarmID identifies one scheduled alarm for later cancellation.
type AlarmID uint64

type alarmEntry struct {
	id    AlarmID
	when  time.Time
	waker *task.Waker
	index int // heap.Interface bookkeeping, for O(log n) cancel
}

// alarmHeap is a min-heap of alarms ordered by deadline, the direct
// generalization of the teacher's timerHeap.
type alarmHeap []*alarmEntry

func (h alarmHeap) Len() int            { return len(h) }
func (h alarmHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h alarmHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}

func (h *alarmHeap) Push(x any) {
	e := x.(*alarmEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *alarmHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Wheel is the timer subsystem: a spinlock-protected alarm heap, matching
// spec.md §5's "Shared resources" discipline of short, spinlock-held
// critical sections.
type Wheel struct {
	mu     spinlock.Spinlock
	heap   alarmHeap
	byID   map[AlarmID]*alarmEntry
	nextID AlarmID
}

// NewWheel constructs an empty timer subsystem.
func NewWheel() *Wheel {
	return &Wheel{byID: make(map[AlarmID]*alarmEntry)}
}

// SetAlarmWakeup is set_alarm_wakeup(deadline, waker): schedules w to be
// fired at the absolute time deadline, returning an id Cancel can use to
// remove it before it fires.
func (t *Wheel) SetAlarmWakeup(deadline time.Time, w *task.Waker) AlarmID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	e := &alarmEntry{id: id, when: deadline, waker: w}
	heap.Push(&t.heap, e)
	t.byID[id] = e
	return id
}

// CancelAlarm is cancel_alarm(waker)'s id-keyed form: removes the alarm
// before it fires, reporting whether it was still pending.
func (t *Wheel) CancelAlarm(id AlarmID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byID[id]
	if !ok {
		return false
	}
	delete(t.byID, id)
	heap.Remove(&t.heap, e.index)
	return true
}

// Advance fires every alarm whose deadline is <= now, returning how many
// fired. Called once per tick by whatever drives wall-clock time forward
// (a real clock interrupt, or a test driving synthetic time).
func (t *Wheel) Advance(now time.Time) int {
	var due []*task.Waker
	t.mu.Lock()
	for t.heap.Len() > 0 && !t.heap[0].when.After(now) {
		e := heap.Pop(&t.heap).(*alarmEntry)
		delete(t.byID, e.id)
		due = append(due, e.waker)
	}
	t.mu.Unlock()

	for _, w := range due {
		w.Wake()
	}
	return len(due)
}

// NextDeadline reports the earliest pending alarm's deadline, if any.
func (t *Wheel) NextDeadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.heap.Len() == 0 {
		return time.Time{}, false
	}
	return t.heap[0].when, true
}

// Len reports how many alarms are currently pending.
func (t *Wheel) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heap.Len()
}
