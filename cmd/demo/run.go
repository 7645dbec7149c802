// Command demo drives the six end-to-end scenarios of spec.md §8: runnable
// programs exercising the task/executor state machine, the shared-mutex
// primitive, the async-syscall channel, the HW scheduler, timer preemption,
// and robust-list exit cleanup, each built from the packages under pkg/.
//
// Grounded on the reference event loop's examples/ directory (one main()
// per scenario, run with `go run ./examples/NN_name/`): this binary folds
// all six into one, selected by subcommand, rather than one directory per
// example, since every scenario shares the same executor/scheduler driving
// loop below.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rvtaic/taskrt/pkg/executor"
	"github.com/rvtaic/taskrt/pkg/task"
	"github.com/rvtaic/taskrt/pkg/timer"
)

// runUntilQuiescent drives e one Step at a time. Whenever nothing is
// runnable, it consults wheel (if non-nil) for the next pending alarm and
// advances simulated time to it rather than spinning; a nil wheel, or an
// empty one, means "no more pending work" once Step reports nothing
// runnable. ErrMachineHalted (the init task exiting) ends the run cleanly.
func runUntilQuiescent(ctx context.Context, e *executor.Executor, wheel *timer.Wheel, now *time.Time) error {
	for {
		ran, err := e.Step(ctx)
		if err != nil {
			if errors.Is(err, executor.ErrMachineHalted) {
				return nil
			}
			return err
		}
		if ran {
			continue
		}
		if wheel == nil {
			return nil
		}
		deadline, ok := wheel.NextDeadline()
		if !ok {
			return nil
		}
		*now = deadline
		wheel.Advance(*now)
	}
}

// awaitExit returns a Future resolving to t's exit code once t reaches
// Exited, built directly on task.Task.AddWaiter/Exit rather than a
// polling loop.
func awaitExit(t *task.Task) task.Future {
	registered := false
	return task.FutureFunc(func(w *task.Waker) task.PollResult {
		if t.State() == task.Exited {
			return task.Ready(t.ExitCode())
		}
		if !registered {
			t.AddWaiter(w)
			registered = true
		}
		return task.Blocking()
	})
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: demo <hello|mutex|pipe|priority|preempt|robustlist>")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "hello":
		_, err = RunHello(os.Stdout)
	case "mutex":
		_, err = RunMutexRace(os.Stdout)
	case "pipe":
		_, _, err = RunPipe(os.Stdout)
	case "priority":
		_, err = RunPriority(os.Stdout)
	case "preempt":
		_, err = RunPreempt(os.Stdout)
	case "robustlist":
		_, _, err = RunRobustList(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}
