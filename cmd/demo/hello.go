package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rvtaic/taskrt/pkg/executor"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/task"
)

// RunHello implements spec.md §8 scenario 1: a single init task whose
// future prints "hi" and returns 0, driven to quiescence.
func RunHello(w io.Writer) (exitCode int64, err error) {
	sched := scheduler.NewFIFO()
	if err := sched.Init(); err != nil {
		return 0, err
	}

	hello := task.New("hello", task.FutureFunc(func(waker *task.Waker) task.PollResult {
		fmt.Fprintln(w, "hi")
		return task.Ready(int64(0))
	}))
	hello.IsInit = true
	hello.SetScheduler(sched)
	sched.AddTask(hello)

	e := executor.New(sched)
	if err := runUntilQuiescent(context.Background(), e, nil, nil); err != nil {
		return 0, err
	}
	return hello.ExitCode(), nil
}
