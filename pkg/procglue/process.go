// Package procglue is the narrow glue layer between the core task/executor
// substrate and everything a real process needs that sits outside this
// repository's scope: file descriptors, address spaces, and signal
// delivery. It supplies the thread-group bookkeeping (liveTasks, leader,
// wait/exit) spec.md §3 implies every task belongs to, plus minimal
// consumer-facing interfaces the rest of the system calls through without
// depending on a concrete VFS/paging/signal implementation.
package procglue

import (
	"sync/atomic"

	"github.com/rvtaic/taskrt/internal/spinlock"
	"github.com/rvtaic/taskrt/pkg/task"
)

// ThreadGroup is a process: a leader task plus every task cloned from it
// that did not get its own thread group, tracked exactly the way
// liveTasks/leader bookkeeping works for gvisor's ThreadGroup — the number
// of live tasks, not the full task list, is what drives "has this process
// exited" decisions.
type ThreadGroup struct {
	PID    int64
	leader *task.Task

	mu        spinlock.Spinlock
	members   map[*task.Task]struct{}
	liveTasks int

	exited    atomic.Bool
	exitCode  atomic.Int64
	waitQueue task.WakerQueue
}

// NewThreadGroup constructs a thread group led by leader, which becomes its
// sole initial member.
func NewThreadGroup(pid int64, leader *task.Task) *ThreadGroup {
	leader.PID = pid
	leader.Leader = true
	return &ThreadGroup{
		PID:       pid,
		leader:    leader,
		members:   map[*task.Task]struct{}{leader: {}},
		liveTasks: 1,
	}
}

// Leader returns the thread group's leader task.
func (tg *ThreadGroup) Leader() *task.Task { return tg.leader }

// AddMember adds a cloned task to the group (a "thread", in POSIX terms: a
// task sharing this PID's file table and address space but with its own
// task.Task state machine).
func (tg *ThreadGroup) AddMember(t *task.Task) {
	t.PID = tg.PID
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.members[t] = struct{}{}
	tg.liveTasks++
}

// TaskExited removes t from the live count and performs its robust-list
// exit cleanup. If this was the last live task, the group is marked exited
// with code and every waiter is woken — the thread-group analogue of
// Task.Exit, one level up.
func (tg *ThreadGroup) TaskExited(t *task.Task, code int64, delivery SignalDelivery) {
	ClearChildTID(t.Signal.ClearTID, delivery)

	tg.mu.Lock()
	delete(tg.members, t)
	tg.liveTasks--
	last := tg.liveTasks == 0
	tg.mu.Unlock()

	if last {
		tg.exitCode.Store(code)
		tg.exited.Store(true)
		tg.waitQueue.Fire()
	}
}

// LiveTasks reports the current live-task count.
func (tg *ThreadGroup) LiveTasks() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.liveTasks
}

// Exited reports whether every task in the group has exited.
func (tg *ThreadGroup) Exited() bool { return tg.exited.Load() }

// ExitCode returns the group's exit code; only meaningful once Exited is
// true (the convention, matching Linux, is the leader's or the last
// surviving task's code).
func (tg *ThreadGroup) ExitCode() int64 { return tg.exitCode.Load() }

// AddWaiter registers w to be fired once every task in the group has
// exited, the thread-group-level join a process's parent blocks on.
func (tg *ThreadGroup) AddWaiter(w *task.Waker) { tg.waitQueue.Add(w) }
