package machine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirements_StaticWalk(t *testing.T) {
	call := func(name string) Node {
		return Call{Capability: name, Invoke: func(context.Context, any) (any, error) { return nil, nil }}
	}

	chained := Bind{
		Source: MapErr{Source: call("alpha"), Fn: func(err error) error { return err }},
		Next:   func(any) Node { return call("hidden-in-continuation") },
	}
	assert.Equal(t, []string{"alpha"}, Requirements(chained))

	provided := Provide{Source: chained, Env: map[string]any{"alpha": 1}}
	assert.Empty(t, Requirements(provided))

	bracketed := Bracket{
		Acquire: call("acquire"),
		Use:     func(any) Node { return call("hidden-use") },
		Release: func(any) {},
	}
	assert.Equal(t, []string{"acquire"}, Requirements(bracketed))
}

func TestMissingCapabilities_Sorted(t *testing.T) {
	call := func(name string) Node {
		return Call{Capability: name, Invoke: func(context.Context, any) (any, error) { return nil, nil }}
	}
	// Catch exposes its source; the handler stays opaque.
	n := Catch{
		Source:  Bind{Source: call("zeta"), Next: func(any) Node { return Pure{} }},
		Handler: func(error) Node { return call("omega") },
	}
	deadline := Deadline{Source: n}

	missing := MissingCapabilities(deadline, map[string]any{})
	assert.Equal(t, []string{"zeta"}, missing)
	assert.Empty(t, MissingCapabilities(deadline, map[string]any{"zeta": 1}))
}

func TestMachine_FailWithNilErrorIsPanicClass(t *testing.T) {
	m := New(Options{})
	_, err := m.Run(context.Background(), Fail{}, nil)
	require.Error(t, err)
	var pf *PanicFault
	assert.ErrorAs(t, err, &pf)
}

func TestMachine_PanicInContinuationUnwindsCleanup(t *testing.T) {
	released := false
	root := Bracket{
		Acquire: Pure{Value: 1},
		Use: func(any) Node {
			return Bind{
				Source: Pure{Value: 2},
				Next:   func(any) Node { panic("continuation bug") },
			}
		},
		Release: func(any) { released = true },
	}

	m := New(Options{})
	_, err := m.Run(context.Background(), root, nil)
	var pf *PanicFault
	require.ErrorAs(t, err, &pf)
	assert.True(t, released, "cleanup must run even for panic-class faults")
}

func TestMachine_ReleasePanicDoesNotStarveEarlierReleases(t *testing.T) {
	var order []string
	root := Bracket{
		Acquire: Pure{Value: "outer"},
		Use: func(any) Node {
			return Bracket{
				Acquire: Pure{Value: "inner"},
				Use:     func(any) Node { return Pure{Value: "done"} },
				Release: func(any) { panic("release bug") },
			}
		},
		Release: func(any) { order = append(order, "outer released") },
	}

	m := New(Options{})
	v, err := m.Run(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, []string{"outer released"}, order)
}

func TestMachine_CatchHandlerFailureKeepsUnwinding(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	root := Catch{
		Source: Catch{
			Source:  Fail{Err: first},
			Handler: func(err error) Node { return Fail{Err: second} },
		},
		Handler: func(err error) Node { return Pure{Value: err.Error()} },
	}

	m := New(Options{})
	v, err := m.Run(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}
