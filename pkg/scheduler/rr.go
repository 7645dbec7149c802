package scheduler

import (
	"container/list"

	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// RR is the round-robin software scheduler of spec.md §4.2: carries a fixed
// quantum counter per task and signals a reschedule when it reaches zero.
type RR struct {
	mu       spinlock.Spinlock
	ready    list.List // of *task.Task
	running  map[*task.Task]int
	Quantum  int
}

// NewRR constructs a round-robin scheduler with the given fixed quantum
// (ticks before a running task is forced to yield).
func NewRR(quantum int) *RR {
	if quantum <= 0 {
		quantum = 1
	}
	return &RR{Quantum: quantum, running: make(map[*task.Task]int)}
}

func (s *RR) Init() error { return nil }

func (s *RR) AddTask(t *task.Task) {
	t.SetScheduler(s)
	s.mu.Lock()
	s.ready.PushBack(t)
	s.mu.Unlock()
}

func (s *RR) PickNext() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	front := s.ready.Front()
	if front == nil {
		return nil
	}
	s.ready.Remove(front)
	t := front.Value.(*task.Task)
	s.running[t] = s.Quantum
	return t
}

func (s *RR) PutPrev(t *task.Task, preempted bool) {
	s.mu.Lock()
	delete(s.running, t)
	s.ready.PushBack(t)
	s.mu.Unlock()
}

// Tick decrements cur's remaining quantum (recorded when it was picked) and
// reports true once it reaches zero.
func (s *RR) Tick(cur *task.Task) (needResched bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, ok := s.running[cur]
	if !ok {
		return false
	}
	remaining--
	s.running[cur] = remaining
	return remaining <= 0
}

func (s *RR) SetPriority(t *task.Task, priority uint8) bool {
	t.Policy.Priority = priority
	return true
}
