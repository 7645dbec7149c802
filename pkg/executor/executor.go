// Package executor implements the L5 executor/trampoline of spec.md §4.4:
// the per-CPU run loop that picks a task, polls its future exactly once,
// and dispatches on the outcome.
//
// Grounded on the reference event loop's Run/run (loop.go): a
// state-guarded entry point plus an inner driving loop, generalized from
// "poll the timer/IO/microtask queues" to "pick a task from a Scheduler and
// poll its Future".
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvtaic/taskrt/internal/errs"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/task"
	"github.com/rvtaic/taskrt/pkg/telemetry"
)

// ErrMachineHalted is returned by Run once the init task exits, signaling
// that this CPU (and, conceptually, the whole machine) should stop.
var ErrMachineHalted = errors.New("executor: init task exited, machine halted")

// AddressSpaceSwitcher is the narrow hook run_task uses to switch the
// page-table root register before polling a user task (spec.md §4.4 step
// 2). Kernel-only deployments can leave this nil.
type AddressSpaceSwitcher interface {
	SwitchAddressSpace(t *task.Task)
}

// StackRestorer is the always-compiled half of the thread-style suspension
// hook (spec.md §4.6 step "restore from it instead of polling"); the
// threadstyle build tag supplies a concrete pool-backed implementation in
// stackctx_threadstyle.go. Left nil, runTask falls through to polling as
// normal, which is correct for tasks that never used the thread-style API.
type StackRestorer interface {
	Restore(t *task.Task)
}

// Executor drives one CPU's scheduling loop: pick_next_task, poll, dispatch.
type Executor struct {
	Scheduler scheduler.Scheduler
	AddrSpace AddressSpaceSwitcher
	Stacks    StackRestorer

	// Metrics is optional; when set, every poll's latency and every task
	// exit is recorded here instead of silently discarded.
	Metrics *telemetry.SchedulerMetrics

	// PreemptCheck, when set, is consulted once per runTask iteration
	// right after a poll that did not return Ready (a completed task is
	// never consulted): returning true asks the executor to
	// preempt the just-polled task (spec.md §8 scenario 5) instead of
	// dispatching on whatever it returned. A real deployment wires this to
	// "did the timer IRQ fire since the last check"; left nil, preemption
	// never happens.
	PreemptCheck func(t *task.Task) bool

	current *task.Task
}

// New constructs an Executor driven by sched.
func New(sched scheduler.Scheduler, opts ...Option) *Executor {
	e := &Executor{Scheduler: sched}
	e.apply(opts)
	return e
}

// Run drives the CPU loop until ctx is canceled or the init task exits.
// After boot, a CPU has no current task: Run calls PickNext repeatedly
// (spinning cooperatively via a scheduler-specific idle strategy is out of
// scope here; tests and cmd/demo supply schedulers that always have work or
// accept ErrMachineHalted/ctx.Done as the natural exit).
func (e *Executor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := e.Step(ctx); err != nil {
			return err
		}
	}
}

// Step picks and runs exactly one task, reporting whether one was runnable.
// Unlike Run, Step never busy-spins: a false/nil result means the
// scheduler had nothing ready, which callers driving other event sources
// (a timer wheel, an interrupt router) use as the signal to advance those
// instead of re-polling immediately.
func (e *Executor) Step(ctx context.Context) (ran bool, err error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	t := e.Scheduler.PickNext()
	if t == nil {
		return false, nil
	}

	if err := e.runTask(ctx, t); err != nil {
		return true, err
	}
	return true, nil
}

// Preempt implements the involuntary Running -> Runnable transition of
// spec.md §8 scenario 5: if the task currently bound to this executor can
// be preempted (spec.md §9's preempt-disable counter is zero), it is pulled
// off this CPU — without being polled again — and re-inserted into its
// scheduler with the preempt bit set. Returns false if there was no current
// task or it refused preemption, in which case the caller should leave it
// running.
//
// In normal operation this is only reached through PreemptCheck, invoked by
// runTask synchronously right after a poll returns and before runTask acts
// on the result — the one point a task is Running with no poll in flight.
// Calling it concurrently from another goroutine while a poll is actually
// in progress is not supported and would corrupt the state machine, since
// Task.Block/RequeueVoluntary's own CAS assumes nothing else touches state
// in that window.
func (e *Executor) Preempt() bool {
	t := e.current
	if t == nil {
		return false
	}
	if !t.Preempt() {
		return false
	}
	e.current = nil
	e.Scheduler.PutPrev(t, true)
	return true
}

// runTask implements the exact run_task protocol of spec.md §4.4.
func (e *Executor) runTask(ctx context.Context, t *task.Task) error {
	if !t.PickedToRun() {
		return fmt.Errorf("executor: %w: PickNext returned a task that was not Runnable", &errs.InvariantError{Message: "task not runnable at pick time"})
	}
	for {
		e.current = t

		// spec.md §4.4 step 3: a stack_ctx left by thread-style suspension
		// is restored instead of polling the future again.
		if t.Stack != nil && e.Stacks != nil {
			e.Stacks.Restore(t)
			e.current = nil
			return nil
		}

		if t.TrapFrame != nil && e.AddrSpace != nil {
			e.AddrSpace.SwitchAddressSpace(t)
		}

		pollStart := time.Now()
		result, perr := e.pollOnce(t)
		if e.Metrics != nil {
			e.Metrics.PollTime.Observe(float64(time.Since(pollStart).Nanoseconds()))
		}
		if perr != nil {
			// A panicking future: surface as an exit code rather than
			// taking the whole CPU down (spec.md Non-goals carry forward
			// "no task isolation/sandboxing" but a single runaway future
			// must not wedge the scheduling loop).
			telemetry.L().Err().Modifier(telemetry.Category("executor")).
				Modifier(telemetry.TaskField(t.Name)).Err(perr).Log("task panicked")
			t.Exit(-1)
			e.current = nil
			if t.IsInit {
				return fmt.Errorf("executor: init task panicked: %w", perr)
			}
			return nil
		}

		// spec.md §8 scenario 5 / §9 "preempt-disable counter": a timer IRQ
		// is checked at exactly this point, the one place runTask is about
		// to act on a completed poll's result rather than partway through
		// running arbitrary future code (which this cooperative, one-hart-
		// at-a-time model has no way to interrupt mid-call). PreemptCheck
		// winning takes priority over whatever the future itself returned.
		if !result.IsReady() && e.PreemptCheck != nil && e.PreemptCheck(t) && e.Preempt() {
			return nil
		}

		if result.IsReady() {
			code, _ := result.Value().(int64)
			if e.Metrics != nil {
				e.Metrics.Completed.Incr(time.Now())
			}
			t.Exit(code)
			e.current = nil
			if t.IsInit {
				return ErrMachineHalted
			}
			return nil
		}

		// Pending: dispatch per spec.md §4.4 step 5. A genuine suspension
		// request drives Task.Block, which performs the Running -> Blocking
		// -> {Blocked | Waked} transition (and the matching race handling)
		// in one call; everything else is the "Running + other" cooperative
		// requeue, with the user-task direct-return case bypassing a full
		// re-entry into the executor.
		if result.IsBlocking() {
			switch t.Block() {
			case task.Blocked:
				e.current = nil
				return nil
			case task.Waked:
				if !t.ResumeFromWaked() {
					return invariantViolation(t, "Waked -> Running")
				}
				continue // loop and re-poll: a waker won the race
			default:
				return invariantViolation(t, "Block returned neither Blocked nor Waked")
			}
		}

		if t.TrapFrame != nil && t.TrapFrame.Status == task.TrapDone {
			// Direct-return path: bypass a full re-entry into the
			// executor. Rendered here as simply requeuing Runnable — there
			// is no real userspace to return to in this substrate, but the
			// state transition matches spec.md.
			if !t.RequeueVoluntary() {
				return invariantViolation(t, "direct-return requeue")
			}
			e.Scheduler.PutPrev(t, false)
			e.current = nil
			return nil
		}
		if !t.RequeueVoluntary() {
			return invariantViolation(t, "Running -> Runnable requeue")
		}
		e.Scheduler.PutPrev(t, false)
		e.current = nil
		return nil
	}
}

func invariantViolation(t *task.Task, where string) error {
	return &errs.InvariantError{Message: fmt.Sprintf("task %s: %s", t.Name, where)}
}

// pollOnce polls t's future exactly once, recovering a panic into a typed
// error so one misbehaving task cannot crash the CPU's run loop.
func (e *Executor) pollOnce(t *task.Task) (result task.PollResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errs.PanicError{Value: r}
		}
	}()
	w := task.NewWaker(t)
	result = t.Future().Poll(w)
	return result, nil
}

// Current returns the task currently bound to this executor, or nil.
func (e *Executor) Current() *task.Task { return e.current }
