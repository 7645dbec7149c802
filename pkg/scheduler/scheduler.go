// Package scheduler implements the six-operation scheduler abstraction of
// spec.md §4.2 (init/add_task/pick_next_task/put_prev_task/task_tick/
// set_priority) and its concrete instances: hardware-backed (TAIC), FIFO,
// round-robin, and CFS.
//
// CFS's vruntime-ordered heap is grounded on the reference event loop's
// timerHeap (loop.go): a container/heap.Interface implementation. FIFO and
// RR do not use a heap; their ready queues are container/list lists.
package scheduler

import "github.com/rvtaic/taskrt/pkg/task"

// Scheduler is the abstract scheduler trait of spec.md §4: owns a
// collection of tasks and exposes six operations. It satisfies
// task.Scheduler (AddTask) so a *Task's scheduler handle can point straight
// at any concrete instance below.
type Scheduler interface {
	task.Scheduler

	// Init performs any one-time setup (HW: binds the sentinel OS task).
	Init() error

	// PickNext selects the next task to run, or nil if none is runnable.
	PickNext() *task.Task

	// PutPrev returns a previously-running task to the scheduler,
	// recording whether it was preempted rather than having yielded
	// voluntarily.
	PutPrev(t *task.Task, preempted bool)

	// Tick is called once per scheduler tick for the currently running
	// task and reports whether a reschedule is now needed.
	Tick(cur *task.Task) (needResched bool)

	// SetPriority updates t's priority, reporting whether the scheduler
	// honored the request (the HW scheduler's priority is policy-fixed by
	// the controller and always reports ok).
	SetPriority(t *task.Task, priority uint8) (ok bool)
}
