// Package errs supplies the typed error kinds of spec.md §7, grounded on the
// reference event loop's ES2022-flavored error types (errors.go): a small
// family of structs with an Unwrap-able Cause, so callers can use errors.Is
// and errors.As across the whole taxonomy.
package errs

import "fmt"

// HWError represents a hardware-controller failure surfaced by pkg/taic:
// the fetch register returned the FetchError sentinel (-1).
type HWError struct {
	Op    string
	Cause error
}

func (e *HWError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("taic: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("taic: %s: controller signalled an internal error", e.Op)
}

func (e *HWError) Unwrap() error { return e.Cause }

// InvariantError represents an illegal task-state transition (spec.md §4.5)
// or another programming-error-class invariant violation. pkg/executor
// returns it from runTask (and so from Step and Run) when a task is found
// in a state the run_task protocol does not allow; a panicking future is
// reported separately, as a PanicError and exit code -1.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string { return "invariant violation: " + e.Message }

// ExhaustionError represents resource exhaustion: the thread-style stack
// pool was empty and the backing heap could not satisfy a new allocation.
type ExhaustionError struct {
	Resource string
}

func (e *ExhaustionError) Error() string { return "resource exhausted: " + e.Resource }

// RemoteDeathError represents the async-syscall handler task being killed
// while requests were still outstanding (spec.md §4.7 failure model). It
// carries a negative error code suitable for writing into an Item's RetPtr.
type RemoteDeathError struct {
	Code int64
}

func (e *RemoteDeathError) Error() string {
	return fmt.Sprintf("async-syscall handler died, code=%d", e.Code)
}

// PanicError wraps a recovered panic value so it can flow through the
// typed-error taxonomy instead of crashing the CPU goroutine outright.
// Grounded on the reference event loop's PanicError (errors.go).
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap allows errors.Is/errors.As to reach through to the panic value
// itself when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// LookupError represents a failed lookup of a keyed resource the caller
// assumed existed: an unknown fd, scheduler id, or task handle (spec.md §7
// "Permission/lookup errors").
type LookupError struct {
	Kind string
	Key  any
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed: no such %s: %v", e.Kind, e.Key)
}

// PermissionError represents an operation rejected because the caller
// lacks the capability it requires (spec.md §7 "Permission/lookup errors").
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string { return fmt.Sprintf("permission denied: %s", e.Op) }

// Wrap attaches a message to cause, matching the reference WrapError helper.
func Wrap(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
