package procglue

import "github.com/rvtaic/taskrt/pkg/task"

// CloneFlags selects which resources a cloned task shares with its parent,
// the Go-idiomatic stand-in for Linux's clone(2) CLONE_* bitmask.
type CloneFlags struct {
	NewThreadGroup bool // CLONE_THREAD unset: child gets its own PID/ThreadGroup
	ShareFiles     bool // CLONE_FILES: child gets the same FileTable, not a copy
	ShareAddrSpace bool // CLONE_VM: child gets the same AddressSpace, not a copy
}

// Process bundles a thread group with the resources its member tasks share:
// the file table and address space. It is the unit pkg/procglue spawns and
// clones.
type Process struct {
	Group   *ThreadGroup
	Files   FileTable
	Mem     AddressSpace
	Signals SignalDelivery
}

// Spawn creates a fresh process around leader, allocating an empty file
// table and using addr as its initial address space (NullAddressSpace for a
// kernel-only process).
func Spawn(pid int64, leader *task.Task, addr AddressSpace, signals SignalDelivery) *Process {
	if addr == nil {
		addr = NullAddressSpace{}
	}
	if signals == nil {
		signals = NullSignalDelivery{}
	}
	return &Process{
		Group:   NewThreadGroup(pid, leader),
		Files:   NewFileTable(),
		Mem:     addr,
		Signals: signals,
	}
}

// Clone creates child as either a new thread within p (flags.NewThreadGroup
// false) or the leader of a brand-new process (flags.NewThreadGroup true,
// newPID supplies its PID), wiring up its file table and address space per
// flags. It mirrors clone(2)'s "new task, existing or new resources" shape
// rather than fork/exec's "duplicate everything" shape, matching how the
// reference kernel models both under a single primitive.
func (p *Process) Clone(child *task.Task, newPID int64, flags CloneFlags) *Process {
	files := p.Files
	if !flags.ShareFiles {
		files = files.Fork()
	}
	mem := p.Mem
	if !flags.ShareAddrSpace {
		mem = mem.Fork(false)
	}

	if !flags.NewThreadGroup {
		p.Group.AddMember(child)
		return &Process{Group: p.Group, Files: files, Mem: mem, Signals: p.Signals}
	}

	return &Process{
		Group:   NewThreadGroup(newPID, child),
		Files:   files,
		Mem:     mem,
		Signals: p.Signals,
	}
}
