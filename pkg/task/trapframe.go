package task

// TrapStatus tags the last trap a user task took, letting the executor
// decide whether it can return straight to userspace (Done) or must be
// rescheduled (Blocked) per spec.md §4.4 step 5a.
type TrapStatus int

const (
	// TrapDone: the trap handler finished and the task is ready to resume
	// userspace directly, skipping a full re-entry into the executor.
	TrapDone TrapStatus = iota
	// TrapBlocked: the trap handler itself suspended (e.g. a blocking
	// syscall); the task must be polled again before it can resume.
	TrapBlocked
)

// GPRegs is the general-purpose register image captured at a user trap,
// sized for a RISC-V-class ABI: 31 general registers (x1..x31; x0 is
// hard-wired zero and not saved).
type GPRegs [31]uint64

// TrapFrame is the full register image captured at the last trap a user
// task took, present only for user tasks (spec.md §3 "user trap frame
// slot").
type TrapFrame struct {
	Regs           GPRegs
	SEPC           uint64 // supervisor exception program counter: resume address
	SStatus        uint64
	SCause         uint64
	STval          uint64
	Status         TrapStatus
	KernelStackTop uintptr
}
