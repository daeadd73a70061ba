package effect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tidemill/effectum/clock"
	"github.com/tidemill/effectum/config"
	"github.com/tidemill/effectum/effect/internal/machine"
	"github.com/tidemill/effectum/outcome"
)

type runConfig struct {
	logger  *zap.Logger
	clock   clock.Clock
	signal  *Signal
	timeout time.Duration
}

// RunOption tunes one run without touching the description.
type RunOption func(*runConfig)

// WithLogger attaches a zap logger; runs log lifecycle at debug level.
func WithLogger(logger *zap.Logger) RunOption {
	return func(rc *runConfig) { rc.logger = logger }
}

// WithClock overrides the clock capability used for Timeout timers and run
// spans. Defaults to the wall clock.
func WithClock(clk clock.Clock) RunOption {
	return func(rc *runConfig) { rc.clock = clk }
}

// WithSignal attaches a cancellation signal to the run.
func WithSignal(signal *Signal) RunOption {
	return func(rc *runConfig) { rc.signal = signal }
}

// WithConfig applies runtime configuration: a non-zero DefaultTimeout wraps
// the whole run in a Timeout scope.
func WithConfig(cfg config.Runtime) RunOption {
	return func(rc *runConfig) { rc.timeout = cfg.DefaultTimeout }
}

// Run is the only operation that performs effects. It drives e to a
// terminal outcome on the calling goroutine, suspending at capability
// calls. Resolution is total: when the environment leaves statically known
// requirements unmet, Run fails with a MissingCapabilityError naming all of
// them without executing a single step.
//
// Independent Run invocations share no state; running the same description
// twice with equivalent environments is indistinguishable from running two
// copies.
func Run[A any](ctx context.Context, e Effect[A], env Env, opts ...RunOption) outcome.Outcome[A, error] {
	rc := runConfig{}
	for _, opt := range opts {
		opt(&rc)
	}

	var cancelCh <-chan struct{}
	if rc.signal != nil {
		cancelCh = rc.signal.Done()
	}

	root := e.node
	if rc.timeout > 0 {
		root = machine.Deadline{Source: root, Timeout: rc.timeout}
	}

	m := machine.New(machine.Options{
		Logger: rc.logger,
		Clock:  rc.clock,
		Cancel: cancelCh,
	})

	value, err := m.Run(ctx, root, env)
	if err != nil {
		return outcome.Failure[A](err)
	}
	return outcome.Success[A, error](as[A](value))
}

// RunAsync starts the run as an independent task and delivers the terminal
// outcome on the returned channel, which is closed after delivery. Multiple
// RunAsync tasks proceed without interfering; no ordering holds between
// them unless the caller synchronizes.
func RunAsync[A any](ctx context.Context, e Effect[A], env Env, opts ...RunOption) <-chan outcome.Outcome[A, error] {
	ch := make(chan outcome.Outcome[A, error], 1)
	go func() {
		defer close(ch)
		ch <- Run(ctx, e, env, opts...)
	}()
	return ch
}
