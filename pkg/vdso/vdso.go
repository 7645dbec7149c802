// Package vdso implements the vDSO surface of spec.md §6: a small,
// process-wide symbol table exporting scheduler/task primitives so user
// code can call into the kernel's scheduling fast path without a syscall
// trap, plus the data-segment bootstrap a real vDSO ELF image's dynamic
// symbol table and AT_SYSINFO_EHDR lookup would perform.
//
// This package does not carry a real ELF image or relocation: the "shared
// ELF object" is modeled as a SymbolTable built directly from Go function
// values, and DataBase bootstrap is modeled as the same Base/Offset pair
// pkg/pi already uses rather than walking an auxiliary vector. What is kept
// faithful is the shape of the ABI: five fixed symbols, each taking a
// scheduler id and, where appropriate, a task pointer and priority.
package vdso

import (
	"sync"

	"github.com/rvtaic/taskrt/pkg/pi"
	"github.com/rvtaic/taskrt/pkg/scheduler"
	"github.com/rvtaic/taskrt/pkg/task"
)

// SchedulerID identifies one registered scheduler instance within a
// SymbolTable, the handle __vdso_add_scheduler hands back and every other
// symbol takes as its first argument.
type SchedulerID uint32

// SymbolTable is the vDSO's dynamic symbol table: the five fixed exports of
// spec.md §6, resolved once at process-init time and cached by the caller
// exactly as a real userspace AT_SYSINFO_EHDR bootstrap would cache the
// resolved function pointers.
type SymbolTable struct {
	mu   sync.RWMutex
	next SchedulerID
	reg  map[SchedulerID]scheduler.Scheduler
}

// NewSymbolTable constructs an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{reg: make(map[SchedulerID]scheduler.Scheduler)}
}

// AddScheduler is __vdso_add_scheduler: registers sched and returns a handle
// for subsequent calls. sched.Init is called once, here, matching
// spec.md §4.2's scheduler lifecycle.
func (t *SymbolTable) AddScheduler(sched scheduler.Scheduler) (SchedulerID, error) {
	if err := sched.Init(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := t.next
	t.reg[id] = sched
	return id, nil
}

// DeleteScheduler is __vdso_delete_scheduler: unregisters id, reporting
// whether it was present.
func (t *SymbolTable) DeleteScheduler(id SchedulerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.reg[id]; !ok {
		return false
	}
	delete(t.reg, id)
	return true
}

// AddTask is __vdso_add_task: submits tk to the scheduler behind id,
// reporting whether id resolved to a live scheduler.
func (t *SymbolTable) AddTask(id SchedulerID, tk *task.Task) bool {
	sched := t.lookup(id)
	if sched == nil {
		return false
	}
	sched.AddTask(tk)
	return true
}

// PickNextTask is __vdso_pick_next_task: returns the next runnable task
// from the scheduler behind id, or nil if id is unknown or the scheduler
// has no runnable task.
func (t *SymbolTable) PickNextTask(id SchedulerID) *task.Task {
	sched := t.lookup(id)
	if sched == nil {
		return nil
	}
	return sched.PickNext()
}

// ClearCurrent is __vdso_clear_current: for schedulers that track an
// explicit "currently running" slot separately from the ready queue (the HW
// scheduler's switch_process register), clears it. Software
// schedulers have no such slot and this is a no-op for them, reported via
// the bool.
func (t *SymbolTable) ClearCurrent(id SchedulerID) bool {
	sched := t.lookup(id)
	if sched == nil {
		return false
	}
	if clearer, ok := sched.(interface{ ClearCurrent() }); ok {
		clearer.ClearCurrent()
		return true
	}
	return false
}

func (t *SymbolTable) lookup(id SchedulerID) scheduler.Scheduler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reg[id]
}

// DataSegment is the vDSO's read-write data page (spec.md §6: "its data
// segment is mapped read-write at a known adjacent page"), resolved via
// pkg/pi's Base/Offset scheme so the same bytes work whether mapped by the
// kernel at init or by a userspace process after reading AT_SYSINFO_EHDR.
type DataSegment struct {
	base pi.DataBaseFunc
}

// NewDataSegment wraps getBase, the per-address-space base resolver.
func NewDataSegment(getBase pi.DataBaseFunc) *DataSegment {
	return &DataSegment{base: getBase}
}

// Base returns the data segment's base in the calling address space.
func (d *DataSegment) Base() pi.Base { return d.base() }
