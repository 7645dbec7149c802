// Package telemetry is the ambient observability layer: structured logging
// and the latency percentile estimator behind the executor's poll-latency
// metrics (SchedulerMetrics.PollTime). Logging is a package-level swappable singleton,
// the same shape as the reference event loop's SetStructuredLogger: any
// component can log through telemetry without threading a *Logger value
// through every constructor, and tests can swap in a buffer-backed logger
// to assert on output.
package telemetry

import (
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Event is the concrete logiface event type this package is wired to. It's
// an alias, not a wrapper, so callers can use every stumpy.Event field
// method (Str, Int64, Dur, ...) directly off a *Logger's builder chain.
type Event = stumpy.Event

// Logger is the concrete logger type every component in this module logs
// through.
type Logger = logiface.Logger[*Event]

var (
	mu      sync.RWMutex
	current *Logger
)

func init() {
	current = newLogger(os.Stderr)
}

func newLogger(w io.Writer) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(w),
	)
}

// SetLogger replaces the package-level logger, e.g. with one writing to a
// test buffer or configured with a different level/writer.
func SetLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// SetWriter is a convenience for the common case of just redirecting
// output, keeping the default stumpy JSON encoding.
func SetWriter(w io.Writer) {
	SetLogger(newLogger(w))
}

// L returns the current package-level logger.
func L() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Category tags a log line with the subsystem that produced it (spec.md's
// modules: "executor", "scheduler", "taic", "syscallring", "vdso",
// "timer", "procglue"), mirroring the reference event loop's LogEntry
// Category field.
func Category(category string) logiface.Modifier[*Event] {
	return logiface.ModifierFunc[*Event](func(e *Event) error {
		e.AddString("category", category)
		return nil
	})
}

// TaskField tags a log line with the task it concerns, by name — the
// logiface analogue of the reference event loop's LogEntry.TaskID field,
// adapted to this repo's string-named tasks rather than integer ids.
func TaskField(name string) logiface.Modifier[*Event] {
	return logiface.ModifierFunc[*Event](func(e *Event) error {
		e.AddString("task", name)
		return nil
	})
}
