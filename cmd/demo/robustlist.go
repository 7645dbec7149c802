package main

import (
	"context"
	"fmt"
	"io"
	"unsafe"

	"github.com/rvtaic/taskrt/pkg/executor"
	"github.com/rvtaic/taskrt/pkg/procglue"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/task"
)

// recordingDelivery captures the futex wake a robust-list exit performs,
// standing in for the kernel's real FUTEX_WAKE syscall.
type recordingDelivery struct {
	addr  uintptr
	count int
}

func (d *recordingDelivery) FutexWake(addr uintptr, count int) int {
	d.addr = addr
	d.count = count
	return count
}

// RunRobustList implements spec.md §8 scenario 6: a task whose
// clear_child_tid points at a valid user address exits; the word there is
// zeroed and a futex wake of count 1 is delivered to whoever was waiting on
// it, via pkg/procglue.ThreadGroup.TaskExited/ClearChildTID.
func RunRobustList(w io.Writer) (cleared uint32, woken int, err error) {
	sched := scheduler.NewFIFO()
	if err := sched.Init(); err != nil {
		return 0, 0, err
	}

	var tidWord uint32 = 0xdeadbeef
	leader := task.New("robust-leader", task.FutureFunc(func(waker *task.Waker) task.PollResult {
		return task.Ready(int64(0))
	}))
	leader.IsInit = true
	leader.Signal.ClearTID = uintptr(unsafe.Pointer(&tidWord)) //nolint:gosec // address of a live local, kept alive for the whole call
	leader.SetScheduler(sched)
	sched.AddTask(leader)

	tg := procglue.NewThreadGroup(1, leader)

	e := executor.New(sched)
	if err := runUntilQuiescent(context.Background(), e, nil, nil); err != nil {
		return 0, 0, err
	}

	// Executor has no notion of a thread group; the kernel-side process
	// layer is responsible for noticing a leader's exit and performing its
	// cleanup, which the demo does explicitly here.
	delivery := &recordingDelivery{}
	tg.TaskExited(leader, leader.ExitCode(), delivery)

	fmt.Fprintf(w, "clear_child_tid zeroed, futex wake count=%d\n", delivery.count)
	return tidWord, delivery.count, nil
}
