package scheduler

import (
	"container/list"

	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// FIFO is the straightforward software scheduler of spec.md §4.2: a plain
// ready queue, first in, first out.
type FIFO struct {
	mu    spinlock.Spinlock
	ready list.List
}

// NewFIFO constructs an empty FIFO scheduler.
func NewFIFO() *FIFO { return &FIFO{} }

func (s *FIFO) Init() error { return nil }

func (s *FIFO) AddTask(t *task.Task) {
	t.SetScheduler(s)
	s.mu.Lock()
	s.ready.PushBack(t)
	s.mu.Unlock()
}

func (s *FIFO) PickNext() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	front := s.ready.Front()
	if front == nil {
		return nil
	}
	s.ready.Remove(front)
	return front.Value.(*task.Task)
}

func (s *FIFO) PutPrev(t *task.Task, preempted bool) {
	s.mu.Lock()
	s.ready.PushBack(t)
	s.mu.Unlock()
}

func (s *FIFO) Tick(cur *task.Task) (needResched bool) { return false }

func (s *FIFO) SetPriority(t *task.Task, priority uint8) bool {
	t.Policy.Priority = priority
	return true
}
