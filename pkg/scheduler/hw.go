package scheduler

import (
	"sync"
	"unsafe"

	"github.com/rvtaic/taskrt/pkg/taic"
	"github.com/rvtaic/taskrt/pkg/task"
)

// sharedOSTask backs WithLoadBalancedOSTask: a single sentinel OS task
// reused by every hart in the process, constructed once on first use. The
// default (option absent) is each HWScheduler minting its own, per spec.md
// §4.2 and the open-question decision in DESIGN.md.
var (
	sharedOSTaskOnce sync.Once
	sharedOSTask     *task.Task
)

func getSharedOSTask() *task.Task {
	sharedOSTaskOnce.Do(func() {
		sharedOSTask = task.NewAligned("os-sentinel", task.FutureFunc(func(w *task.Waker) task.PollResult {
			return task.Pending()
		}))
	})
	return sharedOSTask
}

// HWScheduler is the hardware-backed adapter of spec.md §4.2: all state
// lives in TAIC device registers via the Driver; add_task/pick_next_task
// translate directly to add/fetch register access, converting between
// virtual and physical task-id forms at the boundary.
type HWScheduler struct {
	driver   *taic.Driver
	physOff  task.PhysicalOffset
	opts     hwOptions
	osTask   *task.Task
}

// NewHWScheduler wraps driver as a Scheduler, applying opts. A nonzero
// WithPhysicalOffset option takes the place of physOff.
func NewHWScheduler(driver *taic.Driver, physOff task.PhysicalOffset, opts ...HWOption) *HWScheduler {
	var o hwOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.physicalOffset != 0 {
		physOff = task.PhysicalOffset(o.physicalOffset)
	}
	return &HWScheduler{driver: driver, physOff: physOff, opts: o}
}

// Init allocates a sentinel OS task if none exists and binds it via
// switch_os. Under WithLoadBalancedOSTask, every hart shares the process-
// wide sentinel; otherwise each hart mints its own.
func (s *HWScheduler) Init() error {
	if s.opts.loadBalancedOSTask {
		s.osTask = getSharedOSTask()
	} else if s.osTask == nil {
		s.osTask = task.NewAligned("os-sentinel", task.FutureFunc(func(w *task.Waker) task.PollResult {
			return task.Pending()
		}))
	}
	id := s.idOf(s.osTask, 0, false)
	phys := id.Physical(s.physOff)
	s.driver.SwitchOS(&phys)
	return nil
}

func (s *HWScheduler) idOf(t *task.Task, priority uint8, preempt bool) task.TaskID {
	return task.PackTaskID(unsafe.Pointer(t), priority, preempt)
}

// AddTask converts t's reference into a raw pointer, packs priority and
// preempt bit, subtracts the physical offset, and writes it to the add
// register. Ownership of the reference is conceptually transferred to the
// hardware queue: the caller must not Release it again until PickNext
// hands it back.
//
// t must have been constructed with task.NewAligned: the ABI's 64-byte
// pointer alignment requirement is not optional here, unlike the software
// schedulers which never pack a task pointer into a machine word.
func (s *HWScheduler) AddTask(t *task.Task) {
	t.SetScheduler(s)
	id := s.idOf(t, t.Policy.Priority, false)
	s.driver.Add(id.Physical(s.physOff))
}

// PickNext reads the fetch register. On a valid id, adds the physical
// offset back and recovers the *task.Task from the raw pointer, reclaiming
// the reference the hardware queue was holding.
func (s *HWScheduler) PickNext() *task.Task {
	phys, res := s.driver.Fetch()
	if res != taic.FetchOK {
		return nil
	}
	virt := phys.Virtual(s.physOff)
	return (*task.Task)(virt.Pointer())
}

// PutPrev updates the task's preempt flag, repacks, and writes it back to
// the add register.
func (s *HWScheduler) PutPrev(t *task.Task, preempted bool) {
	id := s.idOf(t, t.Policy.Priority, preempted)
	s.driver.Add(id.Physical(s.physOff))
}

// ClearCurrent clears the hart's current-task register by writing a None
// switch_process, the vDSO's __vdso_clear_current operating on a
// hardware-backed scheduler (pkg/vdso.SymbolTable.ClearCurrent).
func (s *HWScheduler) ClearCurrent() {
	s.driver.SwitchProcess(nil)
}

// Tick is a no-op: scheduling policy lives entirely in the controller.
func (s *HWScheduler) Tick(cur *task.Task) (needResched bool) { return false }

// SetPriority records priority in t.Policy.Priority, which is packed into
// the task id the next time AddTask or PutPrev writes it to the controller;
// an id already queued in the controller keeps its old priority. Always
// reports ok.
func (s *HWScheduler) SetPriority(t *task.Task, priority uint8) bool {
	t.Policy.Priority = priority
	return true
}
