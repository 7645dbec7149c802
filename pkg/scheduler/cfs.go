package scheduler

import (
	"container/heap"

	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// cfsEntry is one task's position in the vruntime heap. Weight is derived
// from priority the conventional CFS way: lower priority number runs
// longer per nanosecond of wall time, so vruntime accumulates slower for
// high-priority tasks.
type cfsEntry struct {
	t        *task.Task
	vruntime int64
	weight   int64
}

// vruntimeHeap implements container/heap.Interface, grounded on the
// reference event loop's timerHeap (loop.go): same shape, ordered on
// vruntime instead of a deadline time.Time.
type vruntimeHeap []*cfsEntry

func (h vruntimeHeap) Len() int            { return len(h) }
func (h vruntimeHeap) Less(i, j int) bool  { return h[i].vruntime < h[j].vruntime }
func (h vruntimeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *vruntimeHeap) Push(x any)         { *h = append(*h, x.(*cfsEntry)) }
func (h *vruntimeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// CFS is the completely-fair-scheduler-style software scheduler of spec.md
// §4.2: a weighted vruntime key ordered by a min-heap.
type CFS struct {
	mu      spinlock.Spinlock
	h       vruntimeHeap
	current *cfsEntry
	tick    int64 // simulated ns per tick, charged to the running task
}

// NewCFS constructs an empty CFS scheduler charging tickNS nanoseconds of
// vruntime per Tick call.
func NewCFS(tickNS int64) *CFS {
	if tickNS <= 0 {
		tickNS = 1_000_000 // 1ms default tick
	}
	return &CFS{tick: tickNS}
}

func weightFor(priority uint8) int64 {
	// Conventional inverse relationship: priority 0 is "nicest" in this
	// scheduler's convention (heavier weight, slower vruntime growth).
	return int64(1 + (31 - int64(priority)%32))
}

func (s *CFS) Init() error { return nil }

func (s *CFS) AddTask(t *task.Task) {
	t.SetScheduler(s)
	s.mu.Lock()
	heap.Push(&s.h, &cfsEntry{t: t, vruntime: s.minVruntimeLocked(), weight: weightFor(t.Policy.Priority)})
	s.mu.Unlock()
}

func (s *CFS) minVruntimeLocked() int64 {
	if len(s.h) == 0 {
		return 0
	}
	return s.h[0].vruntime
}

func (s *CFS) PickNext() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.h) == 0 {
		return nil
	}
	e := heap.Pop(&s.h).(*cfsEntry)
	s.current = e
	return e.t
}

func (s *CFS) PutPrev(t *task.Task, preempted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.t == t {
		heap.Push(&s.h, s.current)
		s.current = nil
		return
	}
	heap.Push(&s.h, &cfsEntry{t: t, vruntime: s.minVruntimeLocked(), weight: weightFor(t.Policy.Priority)})
}

// Tick charges the running task's vruntime for one scheduling tick and
// reports whether it has fallen behind the leftmost ready task enough to
// warrant a reschedule.
func (s *CFS) Tick(cur *task.Task) (needResched bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.t != cur {
		return false
	}
	s.current.vruntime += s.tick * 1024 / s.current.weight
	if len(s.h) == 0 {
		return false
	}
	return s.current.vruntime > s.h[0].vruntime
}

func (s *CFS) SetPriority(t *task.Task, priority uint8) bool {
	t.Policy.Priority = priority
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.t == t {
		s.current.weight = weightFor(priority)
	}
	for _, e := range s.h {
		if e.t == t {
			e.weight = weightFor(priority)
			break
		}
	}
	return true
}
