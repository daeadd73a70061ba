package effect

import (
	"errors"

	"github.com/tidemill/effectum/effect/internal/machine"
)

// Fault types raised by the scheduler itself. Transport, syntax, and
// validation faults are defined next to the capabilities that raise them.
type (
	// CancelledError surfaces a run aborted at a suspension point, after
	// its cleanup handlers ran.
	CancelledError = machine.CancelledError

	// MissingCapabilityError reports every capability name the supplied
	// environment left unsatisfied.
	MissingCapabilityError = machine.MissingCapabilityError

	// PanicFault is the sole fatal fault class; CatchAll cannot intercept
	// it.
	PanicFault = machine.PanicFault

	// CancelReason distinguishes signal, context, and timeout cancellation.
	CancelReason = machine.CancelReason
)

const (
	CancelledBySignal  = machine.CancelledBySignal
	CancelledByContext = machine.CancelledByContext
	CancelledByTimeout = machine.CancelledByTimeout
)

// IsPanic reports whether err is (or wraps) the fatal fault class.
func IsPanic(err error) bool {
	var pf *PanicFault
	return errors.As(err, &pf)
}

// IsCancelled reports whether err is (or wraps) a cancellation.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

// IsMissingCapability reports whether err is (or wraps) a resolution
// failure.
func IsMissingCapability(err error) bool {
	var mc *MissingCapabilityError
	return errors.As(err, &mc)
}
