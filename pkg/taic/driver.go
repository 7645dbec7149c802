package taic

import (
	"github.com/rvtaic/taskrt/internal/errs"
	"github.com/rvtaic/taskrt/pkg/task"
)

// FetchResult is the outcome of a Driver.Fetch call.
type FetchResult int

const (
	FetchOK FetchResult = iota
	FetchNoTask
	FetchErr
)

// Driver is the typed wrapper over one hart's RegisterFile (spec.md §4.1).
type Driver struct {
	backend Backend
}

// NewDriver wraps backend, the register-access surface this Driver issues
// typed operations against (a real/simulated MMIO window, or a Loopback
// emulator).
func NewDriver(backend Backend) *Driver { return &Driver{backend: backend} }

// Add pushes id into the hardware priority queue. No return value: the
// write is believed after an ensuing fence, which here is the atomic store
// itself (see RegisterFile doc).
func (d *Driver) Add(id task.TaskID) {
	d.backend.Write(regAdd, uint64(id))
}

// Fetch pops the highest-priority task id. 0 means empty, -1 means a
// controller-internal error; either is surfaced as a typed FetchResult
// rather than forcing every caller to recognize the sentinels itself.
func (d *Driver) Fetch() (task.TaskID, FetchResult) {
	raw := readSigned(d.backend, regFetch)
	switch raw {
	case fetchEmpty:
		return 0, FetchNoTask
	case fetchError:
		return 0, FetchErr
	default:
		return task.TaskID(raw), FetchOK
	}
}

// SwitchProcess switches the active process context. A nil id reads
// `current` first (so callers can reserve queue capacity against the
// outgoing context before it is evicted) and then writes 0; a non-nil id
// writes that id directly.
func (d *Driver) SwitchProcess(id *task.TaskID) task.TaskID {
	return d.switchReg(regSwitchProcess, id)
}

// SwitchOS switches the active OS context, with the same None/Some contract
// as SwitchProcess.
func (d *Driver) SwitchOS(id *task.TaskID) task.TaskID {
	return d.switchReg(regSwitchOS, id)
}

func (d *Driver) switchReg(offset uintptr, id *task.TaskID) task.TaskID {
	if id == nil {
		cur := task.TaskID(d.backend.Read(regCurrent))
		d.backend.Write(offset, 0)
		return cur
	}
	d.backend.Write(offset, uint64(*id))
	return *id
}

// RegisterReceiver binds (recv_task <- send_os, send_proc, send_task) for
// receive-side routing: four ordered writes establishing a routed wake
// channel (spec.md §4.1).
func (d *Driver) RegisterReceiver(recvTask, sendOS, sendProc, sendTask uint64) {
	d.backend.Write(regRegisterRecv+0x00, recvTask)
	d.backend.Write(regRegisterRecv+0x08, sendOS)
	d.backend.Write(regRegisterRecv+0x10, sendProc)
	// The last write of the triad carries the release: everything above is
	// observed by the controller before this word lands.
	d.backend.Write(regRegisterRecv+0x18, sendTask)
}

// RegisterSender binds (send_task -> recv_os, recv_proc, recv_task) for
// send-side routing.
func (d *Driver) RegisterSender(sendTask, recvOS, recvProc, recvTask uint64) {
	d.backend.Write(regRegisterSend+0x00, sendTask)
	d.backend.Write(regRegisterSend+0x08, recvOS)
	d.backend.Write(regRegisterSend+0x10, recvProc)
	d.backend.Write(regRegisterSend+0x18, recvTask)
}

// SendIntr raises an inter-task interrupt at the destination triple
// (recvOS, recvProc, recvTask). The three writes must be observed
// atomically by the controller, hence ordered with the last write carrying
// the release fence.
func (d *Driver) SendIntr(recvOS, recvProc, recvTask uint64) {
	d.backend.Write(regSendIntr+0x00, recvOS)
	d.backend.Write(regSendIntr+0x08, recvProc)
	d.backend.Write(regSendIntr+0x10, recvTask)
}

// Current reads the task id currently bound to this hart.
func (d *Driver) Current() task.TaskID {
	return task.TaskID(d.backend.Read(regCurrent))
}

// RemoveTask removes id from the controller.
func (d *Driver) RemoveTask(id task.TaskID) {
	d.backend.Write(regRemove, uint64(id))
}

// Status is the decoded form of the status register: a cause code in the
// low 4 bits and, in the remainder, the online hart count for the current
// context.
type Status struct {
	Cause      uint8
	OnlineHarts uint64
}

// Status reads and decodes the status register.
func (d *Driver) Status() Status {
	raw := d.backend.Read(regStatus)
	return Status{
		Cause:       uint8(raw & 0xf),
		OnlineHarts: raw >> 4,
	}
}

// FetchOrError converts a FetchErr result into a typed *errs.HWError,
// matching spec.md §4.1's "Failure model: MMIO reads returning sentinel
// values are the only failure indication; the driver surfaces these as
// typed errors."
func (d *Driver) FetchOrError() (task.TaskID, bool, error) {
	id, res := d.Fetch()
	switch res {
	case FetchOK:
		return id, true, nil
	case FetchNoTask:
		return 0, false, nil
	default:
		return 0, false, &errs.HWError{Op: "fetch"}
	}
}
