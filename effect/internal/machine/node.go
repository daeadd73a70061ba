package machine

import (
	"context"
	"sort"
	"time"
)

// Node is the type-erased, immutable description the public effect package
// builds and the machine evaluates. Constructing nodes never performs side
// effects; only a Machine run does.
type Node interface{ isNode() }

// Pure completes immediately with Value.
type Pure struct{ Value any }

// Fail completes immediately with Err on the failure channel.
type Fail struct{ Err error }

// Call invokes one named capability at a suspension point. Invoke receives
// the implementation resolved from the environment; MapErr, when non-nil,
// translates the capability's fault into the caller's error channel.
type Call struct {
	Capability string
	Invoke     func(ctx context.Context, impl any) (any, error)
	MapErr     func(error) error
}

// Bind sequences Next after Source; a failing Source short-circuits and
// Next is never invoked.
type Bind struct {
	Source Node
	Next   func(value any) Node
}

// MapErr transforms only the failure channel of Source.
type MapErr struct {
	Source Node
	Fn     func(error) error
}

// Catch replaces a failing Source with the node Handler builds from the
// error. Panic-class faults bypass Catch entirely.
type Catch struct {
	Source  Node
	Handler func(err error) Node
}

// Provide runs Source with Env merged over the ambient environment; inner
// entries shadow outer ones for the extent of Source.
type Provide struct {
	Source Node
	Env    map[string]any
}

// Bracket registers Release the moment Acquire succeeds. Release runs on
// every exit path from Use (success, failure, cancellation, panic), in
// reverse registration order relative to other cleanup handlers, and is not
// itself cancellable.
type Bracket struct {
	Acquire Node
	Use     func(resource any) Node
	Release func(resource any)
}

// Deadline runs Source under a timer raced against every suspension point
// inside it; when the timer wins, the run is cancelled with a timeout
// reason and cleanup handlers fire as for any cancellation.
type Deadline struct {
	Source  Node
	Timeout time.Duration
}

func (Pure) isNode()     {}
func (Fail) isNode()     {}
func (Call) isNode()     {}
func (Bind) isNode()     {}
func (MapErr) isNode()   {}
func (Catch) isNode()    {}
func (Provide) isNode()  {}
func (Bracket) isNode()  {}
func (Deadline) isNode() {}

// Requirements collects the capability names statically reachable from n:
// every Call not discharged by an enclosing Provide. Names referenced only
// inside not-yet-evaluated continuations (Bind.Next, Catch.Handler,
// Bracket.Use) cannot be seen before the continuation runs; those are
// checked at dispatch time instead.
func Requirements(n Node) []string {
	seen := make(map[string]bool)
	collectRequirements(n, nil, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectRequirements(n Node, provided []map[string]any, seen map[string]bool) {
	switch node := n.(type) {
	case Pure, Fail:
	case Call:
		for _, env := range provided {
			if _, ok := env[node.Capability]; ok {
				return
			}
		}
		seen[node.Capability] = true
	case Bind:
		collectRequirements(node.Source, provided, seen)
	case MapErr:
		collectRequirements(node.Source, provided, seen)
	case Catch:
		collectRequirements(node.Source, provided, seen)
	case Provide:
		collectRequirements(node.Source, append(provided, node.Env), seen)
	case Bracket:
		collectRequirements(node.Acquire, provided, seen)
	case Deadline:
		collectRequirements(node.Source, provided, seen)
	}
}

// MissingCapabilities reports which statically known requirements env does
// not satisfy, sorted. An empty result means resolution can begin.
func MissingCapabilities(n Node, env map[string]any) []string {
	var missing []string
	for _, name := range Requirements(n) {
		if _, ok := env[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
