// Package outcome provides the tagged success/failure container every other
// package in this module builds on.
//
// An Outcome is exactly one of Success(value) or Failure(error), decided at
// construction and immutable afterwards. There is no implicit coercion between
// the two variants: callers either inspect the discriminant, pattern-match via
// Match, or use the explicitly unsafe MustValue.
package outcome

// Outcome carries either a success value of type A or a failure of type E.
// The zero Outcome is a Failure holding the zero E; prefer the constructors.
type Outcome[A any, E error] struct {
	ok    bool
	value A
	err   E
}

// Success wraps a value into the success variant.
func Success[A any, E error](value A) Outcome[A, E] {
	return Outcome[A, E]{ok: true, value: value}
}

// Failure wraps an error into the failure variant.
func Failure[A any, E error](err E) Outcome[A, E] {
	return Outcome[A, E]{err: err}
}

// IsSuccess reports whether the outcome holds a value.
func (o Outcome[A, E]) IsSuccess() bool { return o.ok }

// IsFailure reports whether the outcome holds an error.
func (o Outcome[A, E]) IsFailure() bool { return !o.ok }

// Value returns the success value and whether it is present.
func (o Outcome[A, E]) Value() (A, bool) { return o.value, o.ok }

// Err returns the failure and whether it is present.
func (o Outcome[A, E]) Err() (E, bool) { return o.err, !o.ok }

// MustValue extracts the success value without checking the discriminant.
//
// Precondition: the caller has already proven the outcome is a Success.
// Calling MustValue on a Failure is a programming error and panics; it is
// never a recoverable failure.
func (o Outcome[A, E]) MustValue() A {
	if !o.ok {
		panic("outcome: MustValue called on Failure")
	}
	return o.value
}

// Match forces exhaustive handling of both variants and returns the branch
// result. There is no default branch: both handlers are required.
func Match[A any, E error, R any](
	o Outcome[A, E],
	onSuccess func(A) R,
	onFailure func(E) R,
) R {
	if o.ok {
		return onSuccess(o.value)
	}
	return onFailure(o.err)
}

// Map transforms the success value, leaving a Failure untouched.
func Map[A, B any, E error](o Outcome[A, E], f func(A) B) Outcome[B, E] {
	if !o.ok {
		return Outcome[B, E]{err: o.err}
	}
	return Success[B, E](f(o.value))
}

// MapError transforms the failure, leaving a Success untouched. The
// discriminant never changes: a Success stays a Success, a Failure stays a
// Failure with the mapped error.
func MapError[A any, E, E2 error](o Outcome[A, E], f func(E) E2) Outcome[A, E2] {
	if o.ok {
		return Success[A, E2](o.value)
	}
	return Failure[A](f(o.err))
}

// FlatMap sequences a fallible continuation after a success; a Failure
// short-circuits and f is never invoked.
func FlatMap[A, B any, E error](o Outcome[A, E], f func(A) Outcome[B, E]) Outcome[B, E] {
	if !o.ok {
		return Outcome[B, E]{err: o.err}
	}
	return f(o.value)
}

// From lifts Go's conventional (value, error) pair into an Outcome.
func From[A any](value A, err error) Outcome[A, error] {
	if err != nil {
		return Failure[A](err)
	}
	return Success[A, error](value)
}
