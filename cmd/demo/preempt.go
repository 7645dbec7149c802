package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rvtaic/taskrt/pkg/executor"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/task"
)

// RunPreempt implements spec.md §8 scenario 5: a task running with
// preemption enabled is interrupted by a (simulated) timer IRQ; the
// executor observes the request via Executor.PreemptCheck, re-inserts the
// task into its scheduler with the preempt bit set, and runs another
// runnable task in the meantime. The interrupted task later resumes at the
// instruction following its trap frame's sepc.
func RunPreempt(w io.Writer) (resumeSEPC uint64, err error) {
	sched := scheduler.NewFIFO()
	if err := sched.Init(); err != nil {
		return 0, err
	}

	const trappedSEPC = 0x8000_1000
	polled := false
	victim := task.New("victim", task.FutureFunc(func(waker *task.Waker) task.PollResult {
		if !polled {
			polled = true
			// Still mid-instruction from the executor's point of view: the
			// timer IRQ below preempts it before this future is asked again.
			return task.Pending()
		}
		return task.Ready(int64(0))
	}))
	victim.TrapFrame = &task.TrapFrame{SEPC: trappedSEPC}
	victim.SetScheduler(sched)
	sched.AddTask(victim)

	other := task.New("other", task.FutureFunc(func(waker *task.Waker) task.PollResult {
		fmt.Fprintln(w, "other task ran while victim was preempted")
		return task.Ready(int64(0))
	}))
	other.SetScheduler(sched)
	sched.AddTask(other)

	driver := task.New("preempt-driver", awaitExit(victim))
	driver.IsInit = true
	driver.SetScheduler(sched)
	sched.AddTask(driver)

	preempted := false
	e := executor.New(sched)
	e.PreemptCheck = func(t *task.Task) bool {
		if t.Name != "victim" || preempted {
			return false
		}
		preempted = true
		fmt.Fprintln(w, "timer IRQ: preempting victim")
		return true
	}

	if err := runUntilQuiescent(context.Background(), e, nil, nil); err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "victim resumed at sepc=0x%x\n", victim.TrapFrame.SEPC)
	return victim.TrapFrame.SEPC, nil
}
