package main

import (
	"fmt"
	"io"

	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/taic"
	"github.com/rvtaic/taskrt/pkg/task"
)

// RunPriority implements spec.md §8 scenario 4: four tasks added with
// priorities 0..3 in insertion order come back out of the HW scheduler in
// priority order, ties (there are none here) broken by insertion order.
func RunPriority(w io.Writer) (order []string, err error) {
	driver := taic.NewDriver(taic.NewLoopback())
	sched := scheduler.NewHWScheduler(driver, task.PhysicalOffset(0))
	if err := sched.Init(); err != nil {
		return nil, err
	}

	names := []string{"p0", "p1", "p2", "p3"}
	tasks := make([]*task.Task, len(names))
	for i, name := range names {
		tk := task.NewAligned(name, task.FutureFunc(func(waker *task.Waker) task.PollResult {
			return task.Ready(int64(0))
		}))
		tk.Policy.Priority = uint8(i)
		tasks[i] = tk
	}
	for _, tk := range tasks {
		sched.AddTask(tk)
	}

	for {
		tk := sched.PickNext()
		if tk == nil {
			break
		}
		order = append(order, tk.Name)
		fmt.Fprintf(w, "fetched %s (priority %d)\n", tk.Name, tk.Policy.Priority)
	}

	return order, nil
}
