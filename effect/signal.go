package effect

import "sync"

// Signal is a per-run cancellation flag: raised at most once, observed by
// the scheduler only at suspension points. A run with no suspension points
// cannot be interrupted mid-flight.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal returns an unraised signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Cancel raises the signal. Raising an already-raised signal is a no-op.
func (s *Signal) Cancel() {
	s.once.Do(func() { close(s.ch) })
}

// Done is closed once the signal has been raised.
func (s *Signal) Done() <-chan struct{} { return s.ch }

// Raised reports whether Cancel has been called.
func (s *Signal) Raised() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
