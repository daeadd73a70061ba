// Package effect provides lazy, composable descriptions of fallible and
// possibly asynchronous computations, executed by a cooperative scheduler.
//
// An Effect[A] is an immutable value: building one performs no side effects,
// and the same description can be run any number of times. Capability calls
// name the external operations a description depends on; the environment
// supplied to Run resolves those names to implementations, and resolution
// failure is reported before any step executes.
//
// The error channel is Go's error interface carrying the module's concrete
// fault types (transport.Fault, *schema.ValidationFailure, *CancelledError,
// ...). Where the source model tracks the error and requirement types
// statically, this package checks them at construction and run time instead;
// the relaxation is deliberate and documented, not a gap.
//
// Usage:
//
//	eff := effect.FlatMap(
//		effect.Call[transport.Transport](transport.CapabilityName, doRequest),
//		decodeBody,
//	)
//	res := effect.Run(ctx, eff, env) // outcome.Outcome[Item, error]
package effect

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemill/effectum/effect/internal/machine"
	"github.com/tidemill/effectum/outcome"
	"github.com/tidemill/effectum/rawtree"
	"github.com/tidemill/effectum/schema"
)

// Effect is a lazy description of a computation that, when run with an
// environment satisfying its capability requirements, eventually produces
// an outcome.Outcome[A, error].
type Effect[A any] struct {
	node machine.Node
}

// Pure describes a computation that always succeeds with value and requires
// no capabilities.
func Pure[A any](value A) Effect[A] {
	return Effect[A]{node: machine.Pure{Value: value}}
}

// FailWith describes a computation that always fails with err.
func FailWith[A any](err error) Effect[A] {
	return Effect[A]{node: machine.Fail{Err: err}}
}

// Call describes one invocation of the named capability. The environment
// entry for name must implement C; a mismatched implementation is a
// contract violation surfaced as a PanicFault, not an ordinary failure.
// Any fault the invocation returns is passed through the optional error
// mapper into the description's error channel. At most one mapper is
// accepted.
func Call[C, A any](
	name string,
	invoke func(ctx context.Context, impl C) (A, error),
	mapErr ...func(error) error,
) Effect[A] {
	return Effect[A]{node: machine.Call{
		Capability: name,
		Invoke: func(ctx context.Context, impl any) (any, error) {
			typed, ok := impl.(C)
			if !ok {
				panic(fmt.Sprintf("effect: capability %q is %T, want %s", name, impl, typeName[C]()))
			}
			return invoke(ctx, typed)
		},
		MapErr: normalizeMapErr(mapErr),
	}}
}

// Map transforms the success value; a failure passes through unchanged.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	return FlatMap(e, func(a A) Effect[B] { return Pure(f(a)) })
}

// FlatMap sequences f after e. When e fails, f is never invoked and the
// failure short-circuits to the result. Sequencing is associative:
// FlatMap(FlatMap(e, f), g) and FlatMap(e, flatMap f then g) run the same
// steps in the same order.
func FlatMap[A, B any](e Effect[A], f func(A) Effect[B]) Effect[B] {
	return Effect[B]{node: machine.Bind{
		Source: e.node,
		Next:   func(value any) machine.Node { return f(as[A](value)).node },
	}}
}

// MapError transforms only the failure channel; a success passes through
// unchanged. Panic-class faults are not mapped, and a transformation that
// returns nil is ignored so the original failure stays on the channel.
func MapError[A any](e Effect[A], f func(error) error) Effect[A] {
	return Effect[A]{node: machine.MapErr{Source: e.node, Fn: f}}
}

// CatchAll replaces a failing e with the description handler builds from
// the error; this is the full-recovery mechanism. Panic-class faults bypass
// CatchAll entirely.
func CatchAll[A any](e Effect[A], handler func(error) Effect[A]) Effect[A] {
	return Effect[A]{node: machine.Catch{
		Source:  e.node,
		Handler: func(err error) machine.Node { return handler(err).node },
	}}
}

// ValidateWith applies a schema to the raw tree e produces: a conforming
// tree yields the bound typed value, a shape mismatch fails with the
// *schema.ValidationFailure carrying every violation found.
func ValidateWith[T any](e Effect[rawtree.Tree], parser schema.Parser[T]) Effect[T] {
	return FlatMap(e, func(raw rawtree.Tree) Effect[T] {
		return outcome.Match(parser.Parse(raw),
			func(v T) Effect[T] { return Pure(v) },
			func(f *schema.ValidationFailure) Effect[T] { return FailWith[T](f) },
		)
	})
}

// Bracket acquires a resource, derives the main computation from it, and
// guarantees release on every exit path: success, failure, cancellation, or
// panic. Releases registered by nested Brackets run in reverse order of
// registration and are not cancellable mid-run.
func Bracket[A, B any](acquire Effect[A], use func(A) Effect[B], release func(A)) Effect[B] {
	return Effect[B]{node: machine.Bracket{
		Acquire: acquire.node,
		Use:     func(resource any) machine.Node { return use(as[A](resource)).node },
		Release: func(resource any) { release(as[A](resource)) },
	}}
}

// Ensuring runs finalizer on every exit path from e.
func Ensuring[A any](e Effect[A], finalizer func()) Effect[A] {
	return Bracket(Pure(struct{}{}),
		func(struct{}) Effect[A] { return e },
		func(struct{}) { finalizer() },
	)
}

// Timeout races the clock capability against every suspension point inside
// e; when the timer wins, the run inside the scope is cancelled (cleanup
// handlers included) and fails with a timeout-reason CancelledError.
// A scope that never suspends cannot observe the timer. Nested scopes are
// bounded by the tightest enclosing deadline: an inner Timeout cannot extend
// an outer one.
func Timeout[A any](e Effect[A], d time.Duration) Effect[A] {
	return Effect[A]{node: machine.Deadline{Source: e.node, Timeout: d}}
}

// as recovers the typed value from the machine's erased channel. The
// machine only ever hands back what the typed constructors put in, so a
// mismatch is a contract violation and panics into the PanicFault path.
func as[A any](value any) A {
	if value == nil {
		var zero A
		return zero
	}
	return value.(A)
}

func typeName[C any]() string {
	var probe *C
	return fmt.Sprintf("%T", probe)[1:]
}

// normalizeMapErr flattens the optional error mapper. Accepts zero or one
// mappers; more is a programming error.
func normalizeMapErr(mapErr []func(error) error) func(error) error {
	switch len(mapErr) {
	case 0:
		return nil
	case 1:
		return mapErr[0]
	default:
		panic("effect: only one or zero error mappers allowed")
	}
}
