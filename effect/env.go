package effect

import "github.com/tidemill/effectum/effect/internal/machine"

// Env maps capability names to implementations. An Env handed to Run is
// treated as immutable for that run's lifetime; With copies, so sharing a
// base Env across runs is safe.
type Env map[string]any

// NewEnv returns an empty environment.
func NewEnv() Env { return Env{} }

// With returns a copy of the environment extended with one capability.
func (e Env) With(name string, impl any) Env {
	out := make(Env, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[name] = impl
	return out
}

// Provide discharges part of e's requirement set: inside the returned
// description the given entries resolve without appearing in the run
// environment. Providing X then Y yields the same resolvable description as
// Y then X when the names are distinct; for a shared name the inner
// provision wins.
func Provide[A any](e Effect[A], env Env) Effect[A] {
	return Effect[A]{node: machine.Provide{Source: e.node, Env: env}}
}

// Requires lists the capability names statically reachable in e and not yet
// discharged by Provide, sorted. Names referenced only inside continuations
// that have not run yet cannot be listed; those are checked when their call
// dispatches.
func (e Effect[A]) Requires() []string {
	return machine.Requirements(e.node)
}
