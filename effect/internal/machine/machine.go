// Package machine is the cooperative execution scheduler behind the effect
// package. One Machine run drives one description to a terminal result on a
// single goroutine: pure steps never suspend, capability calls run in their
// own goroutine and resume the loop over a result channel, and cancellation
// is observed only at those suspension points.
package machine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tidemill/effectum/clock"
)

// Options configures one run. The zero value is usable: nop logger, wall
// clock, no cancellation signal.
type Options struct {
	Logger *zap.Logger
	Clock  clock.Clock
	// Cancel is observed at suspension points; a nil channel never fires.
	Cancel <-chan struct{}
}

// Machine evaluates one Node tree to completion. A Machine is single-use
// and single-goroutine; independent runs get independent Machines and share
// nothing.
type Machine struct {
	runID  string
	logger *zap.Logger
	clock  clock.Clock
	cancel <-chan struct{}

	env   map[string]any
	stack []frame

	// timerCh belongs to the tightest active deadline scope; deadlineAt is
	// its absolute expiry, zero when no deadline is active.
	timerCh    <-chan time.Time
	deadlineAt time.Time
}

// New builds a Machine for a single run.
func New(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var clk clock.Clock = clock.Wall{}
	if opts.Clock != nil {
		clk = opts.Clock
	}
	return &Machine{
		runID:  uuid.New().String(),
		logger: logger,
		clock:  clk,
		cancel: opts.Cancel,
	}
}

// --- continuation frames ---

type frame interface{ isFrame() }

type bindFrame struct{ next func(any) Node }

type mapErrFrame struct{ fn func(error) error }

type catchFrame struct{ handler func(error) Node }

type envFrame struct{ saved map[string]any }

type acquireFrame struct {
	use     func(any) Node
	release func(any)
}

type releaseFrame struct {
	release  func(any)
	resource any
}

type deadlineFrame struct {
	savedTimer <-chan time.Time
	savedAt    time.Time
}

func (bindFrame) isFrame()     {}
func (mapErrFrame) isFrame()   {}
func (catchFrame) isFrame()    {}
func (envFrame) isFrame()      {}
func (acquireFrame) isFrame()  {}
func (releaseFrame) isFrame()  {}
func (deadlineFrame) isFrame() {}

type callResult struct {
	value any
	err   error
}

// Run evaluates root under env to a terminal (value, nil) or (nil, fault).
// A *PanicFault in the error position is the fatal class; every other
// non-nil error is an ordinary typed failure. Resolution is checked before
// the first step: statically known unmet capabilities abort the run with a
// MissingCapabilityError listing all of them.
func (m *Machine) Run(ctx context.Context, root Node, env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}
	if missing := MissingCapabilities(root, env); len(missing) > 0 {
		return nil, &MissingCapabilityError{Missing: missing}
	}

	started := m.clock.Now()
	m.logger.Debug("run started", zap.String("run_id", m.runID))
	m.env = env

	value, err := m.eval(ctx, root)

	span := clock.SpanBetween(started, m.clock.Now())
	if err != nil {
		m.logger.Debug("run failed",
			zap.String("run_id", m.runID),
			zap.String("span", span.Duration().String()),
			zap.Error(err),
		)
	} else {
		m.logger.Debug("run completed",
			zap.String("run_id", m.runID),
			zap.String("span", span.Duration().String()),
		)
	}
	return value, err
}

func (m *Machine) eval(ctx context.Context, root Node) (any, error) {
	cur := root

	for {
		var value any
		var err error

		switch n := cur.(type) {
		case Pure:
			value = n.Value
		case Fail:
			err = n.Err
			if err == nil {
				err = &PanicFault{Value: "Fail node with nil error", Stack: debug.Stack()}
			}
		case Bind:
			m.push(bindFrame{next: n.Next})
			cur = n.Source
			continue
		case MapErr:
			m.push(mapErrFrame{fn: n.Fn})
			cur = n.Source
			continue
		case Catch:
			m.push(catchFrame{handler: n.Handler})
			cur = n.Source
			continue
		case Provide:
			m.push(envFrame{saved: m.env})
			merged := make(map[string]any, len(m.env)+len(n.Env))
			for k, v := range m.env {
				merged[k] = v
			}
			for k, v := range n.Env {
				merged[k] = v
			}
			m.env = merged
			cur = n.Source
			continue
		case Bracket:
			m.push(acquireFrame{use: n.Use, release: n.Release})
			cur = n.Acquire
			continue
		case Deadline:
			m.push(deadlineFrame{savedTimer: m.timerCh, savedAt: m.deadlineAt})
			// The tightest bound wins: an inner scope that would expire
			// after the enclosing one keeps the enclosing timer armed.
			if at := m.clock.Now().Add(n.Timeout); m.deadlineAt.IsZero() || at.Before(m.deadlineAt) {
				m.timerCh = m.clock.After(n.Timeout)
				m.deadlineAt = at
			}
			cur = n.Source
			continue
		case Call:
			value, err = m.dispatch(ctx, n)
		default:
			err = &PanicFault{Value: "unknown node kind", Stack: debug.Stack()}
		}

		next, terminalValue, terminalErr, done := m.unwind(value, err)
		if done {
			return terminalValue, terminalErr
		}
		cur = next
	}
}

// unwind pops frames after one step produced a value or an error, until it
// either finds the next node to evaluate or empties the stack (terminal).
func (m *Machine) unwind(value any, err error) (next Node, terminalValue any, terminalErr error, done bool) {
	for len(m.stack) > 0 {
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]

		switch f := top.(type) {
		case bindFrame:
			if err != nil {
				continue // short-circuit: the continuation is never invoked
			}
			n, pf := protect(func() Node { return f.next(value) })
			if pf != nil {
				value, err = nil, pf
				continue
			}
			return n, nil, nil, false

		case acquireFrame:
			if err != nil {
				continue // acquire failed: release was never registered
			}
			m.push(releaseFrame{release: f.release, resource: value})
			n, pf := protect(func() Node { return f.use(value) })
			if pf != nil {
				value, err = nil, pf
				continue
			}
			return n, nil, nil, false

		case mapErrFrame:
			if err == nil || isPanicFault(err) {
				continue
			}
			mapped, pf := protectErr(func() error { return f.fn(err) })
			if pf != nil {
				err = pf
				continue
			}
			// A nil-mapped error keeps the original failure: mapping never
			// turns a Failure into a Success.
			if mapped != nil {
				err = mapped
			}

		case catchFrame:
			if err == nil || isPanicFault(err) {
				continue
			}
			n, pf := protect(func() Node { return f.handler(err) })
			if pf != nil {
				value, err = nil, pf
				continue
			}
			return n, nil, nil, false

		case envFrame:
			m.env = f.saved

		case releaseFrame:
			m.runRelease(f.release, f.resource)

		case deadlineFrame:
			m.timerCh = f.savedTimer
			m.deadlineAt = f.savedAt
		}
	}
	return nil, value, err, true
}

// dispatch performs one capability call. This is the run's suspension point:
// cancellation, context expiry, and deadline timers are only ever observed
// here.
func (m *Machine) dispatch(ctx context.Context, call Call) (any, error) {
	if cancelled := m.observeCancellation(ctx); cancelled != nil {
		return nil, cancelled
	}

	impl, ok := m.env[call.Capability]
	if !ok {
		// Reachable only through a continuation the pre-run check could not
		// see into; reported before the step executes.
		return nil, &MissingCapabilityError{Missing: []string{call.Capability}}
	}

	callCtx, abort := context.WithCancel(ctx)
	defer abort()

	resCh := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- callResult{err: &PanicFault{Value: r, Stack: debug.Stack()}}
			}
		}()
		v, err := call.Invoke(callCtx, impl)
		resCh <- callResult{value: v, err: err}
	}()

	m.logger.Debug("run suspended",
		zap.String("run_id", m.runID),
		zap.String("capability", call.Capability),
	)

	select {
	case res := <-resCh:
		m.logger.Debug("run resumed",
			zap.String("run_id", m.runID),
			zap.String("capability", call.Capability),
		)
		if res.err != nil {
			if isPanicFault(res.err) || call.MapErr == nil {
				return nil, res.err
			}
			mapped, pf := protectErr(func() error { return call.MapErr(res.err) })
			if pf != nil {
				return nil, pf
			}
			if mapped == nil {
				return nil, res.err
			}
			return nil, mapped
		}
		return res.value, nil

	case <-m.cancel:
		abort() // tell the in-flight capability to stop
		return nil, &CancelledError{Reason: CancelledBySignal}

	case <-ctx.Done():
		abort()
		return nil, &CancelledError{Reason: CancelledByContext, Cause: ctx.Err()}

	case <-m.timerCh:
		abort()
		return nil, &CancelledError{Reason: CancelledByTimeout}
	}
}

// observeCancellation is the non-blocking check performed on entering a
// suspension point, so a signal raised between suspensions is still seen
// before the next capability fires.
func (m *Machine) observeCancellation(ctx context.Context) error {
	select {
	case <-m.cancel:
		return &CancelledError{Reason: CancelledBySignal}
	case <-ctx.Done():
		return &CancelledError{Reason: CancelledByContext, Cause: ctx.Err()}
	case <-m.timerCh:
		return &CancelledError{Reason: CancelledByTimeout}
	default:
		return nil
	}
}

// runRelease executes one cleanup handler. Cleanup is not cancellable and a
// panicking handler must not starve the handlers registered before it, so
// the panic is logged and swallowed.
func (m *Machine) runRelease(release func(any), resource any) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("cleanup handler panicked",
				zap.String("run_id", m.runID),
				zap.Any("panic", r),
			)
		}
	}()
	release(resource)
}

func (m *Machine) push(f frame) {
	m.stack = append(m.stack, f)
}

func isPanicFault(err error) bool {
	_, ok := err.(*PanicFault)
	return ok
}

// protect turns a panic inside a user continuation into a PanicFault, so it
// unwinds through cleanup like a capability panic instead of escaping the
// scheduler.
func protect(fn func() Node) (n Node, pf *PanicFault) {
	defer func() {
		if r := recover(); r != nil {
			pf = &PanicFault{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(), nil
}

func protectErr(fn func() error) (err error, pf *PanicFault) {
	defer func() {
		if r := recover(); r != nil {
			pf = &PanicFault{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(), nil
}
