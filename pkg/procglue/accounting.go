package procglue

import (
	"time"

	"github.com/rvtaic/taskrt/pkg/task"
)

// AccountTick adds dur to t's accumulated user or kernel time, mirroring
// the utime/stime accumulation /proc/[pid]/stat exposes: each call charges
// dur to exactly one of the two buckets, kernel time when kernel is true and
// user time otherwise. The caller decides the bucket; nothing here inspects
// the task's TrapFrame, and the executor does not call AccountTick itself.
func AccountTick(t *task.Task, dur time.Duration, kernel bool) {
	ns := dur.Nanoseconds()
	if kernel {
		t.Time.KernelNS += ns
	} else {
		t.Time.UserNS += ns
	}
}

// TotalTime returns the sum of a task's accumulated user and kernel time,
// the figure reported as the process's total CPU time.
func TotalTime(t *task.Task) time.Duration {
	return time.Duration(t.Time.UserNS + t.Time.KernelNS)
}
