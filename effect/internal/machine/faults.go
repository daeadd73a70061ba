package machine

import (
	"fmt"
	"strings"
)

// CancelReason says which suspension-point race a cancellation lost.
type CancelReason string

const (
	// CancelledBySignal means the run's cancellation signal was raised.
	CancelledBySignal CancelReason = "signal"

	// CancelledByContext means the host context was done.
	CancelledByContext CancelReason = "context"

	// CancelledByTimeout means an enclosing Deadline expired.
	CancelledByTimeout CancelReason = "timeout"
)

// CancelledError surfaces a run aborted at a suspension point. Cleanup
// handlers along the active path have already run by the time callers see
// it. It travels the ordinary typed error channel: CatchAll may recover it.
type CancelledError struct {
	Reason CancelReason
	Cause  error
}

func (e *CancelledError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("effect: run cancelled (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("effect: run cancelled (%s)", e.Reason)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// MissingCapabilityError reports every capability name still unsatisfied
// when resolution was attempted. When raised before the first step it lists
// all statically known gaps; a name only reachable through a continuation
// is reported at its dispatch point.
type MissingCapabilityError struct {
	Missing []string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("effect: missing capabilities: %s", strings.Join(e.Missing, ", "))
}

// PanicFault is the sole fatal fault class: a capability or combinator
// implementation violated its contract. It bypasses Catch frames, runs
// cleanup, and terminates the run.
type PanicFault struct {
	Value any
	Stack []byte
}

func (e *PanicFault) Error() string {
	return fmt.Sprintf("effect: panic during run: %v", e.Value)
}
