package sim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProcessMultiClock is returned by [Flag.Sensitive] and [Buffer.Sensitive] when a
// process is made sensitive on a storage that belongs to a different clock
// than the one the process was created with. A process may belong to
// exactly one clock.
var ErrProcessMultiClock = errors.New("sim: process is already bound to a different clock")

// ErrProgramTermination is the sentinel a simulated program's own
// termination request wraps. Use errors.Is against this value to
// distinguish a normal simulated-program exit from an internal-consistency
// failure surfaced as a [SimulationException].
var ErrProgramTermination = errors.New("sim: simulated program requested termination")

// ConfigError reports a problem in the static configuration of a
// simulation graph (e.g. a clock with zero frequency).
type ConfigError struct {
	Component string
	Message   string
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// TraceViolationError is raised when a process's observed [StorageTrace]
// for a cycle is not a member of the [StorageTraceSet] it declared at
// construction time.
type TraceViolationError struct {
	Process string
	Trace   StorageTrace
}

func (e *TraceViolationError) Error() string {
	return fmt.Sprintf("sim: process %s violated its declared storage trace with %s", e.Process, e.Trace.String())
}

// DeadlockError reports that the simulation has no runnable process and no
// clock scheduled for a future cycle: forward progress is impossible.
type DeadlockError struct {
	Cycle    CycleNo
	Stalled  []string
}

func (e *DeadlockError) Error() string {
	if len(e.Stalled) == 0 {
		return fmt.Sprintf("sim: deadlock at cycle %d", e.Cycle)
	}
	return fmt.Sprintf("sim: deadlock at cycle %d, stalled processes: %s", e.Cycle, strings.Join(e.Stalled, ", "))
}

// SimulationException wraps an error escaping a process callback with the
// master cycle and process name that were active when it propagated,
// mirroring the original kernel's practice of annotating an in-flight
// exception with "(cycle, process)" context as it unwinds the call stack.
type SimulationException struct {
	Cause   error
	Details []string
}

func (e *SimulationException) Error() string {
	if len(e.Details) == 0 {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Cause.Error(), strings.Join(e.Details, "; "))
}

// Unwrap returns the wrapped cause, for use with [errors.Is] and [errors.As].
func (e *SimulationException) Unwrap() error { return e.Cause }

// addDetail returns a new SimulationException with msg appended to the
// detail chain, wrapping err in one if it is not already one.
func addDetail(err error, msg string) *SimulationException {
	var exc *SimulationException
	if errors.As(err, &exc) {
		return &SimulationException{Cause: exc.Cause, Details: append(append([]string{}, exc.Details...), msg)}
	}
	return &SimulationException{Cause: err, Details: []string{msg}}
}
