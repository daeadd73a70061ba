// Package clock is the clock capability: timers for the Timeout combinator
// and timestamps for run-span measurement. Wall is the production
// implementation; Fake drives timers manually so timeout behavior is
// deterministic under test.
package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// CapabilityName is the environment key timer effects resolve. The runtime
// falls back to Wall when no clock is provided.
const CapabilityName = "clock"

// Clock supplies current time and one-shot timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SpanBetween reports the elapsed span between two instants.
func SpanBetween(from, to time.Time) timespan.TimeSpan {
	return timespan.BetweenTimes(from, to)
}

// Wall is the real-time clock.
type Wall struct{}

var _ Clock = Wall{}

func (Wall) Now() time.Time { return time.Now() }

func (Wall) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Fake is a manually advanced clock. Timers fire only when Advance moves the
// fake now past their deadline.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []fakeTimer
}

type fakeTimer struct {
	at time.Time
	ch chan time.Time
}

var _ Clock = (*Fake)(nil)

// NewFake starts a fake clock at the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	at := f.now.Add(d)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.timers = append(f.timers, fakeTimer{at: at, ch: ch})
	return ch
}

// Advance moves the fake now forward and fires every timer whose deadline
// has passed, earliest first.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)

	sort.Slice(f.timers, func(i, j int) bool { return f.timers[i].at.Before(f.timers[j].at) })
	remaining := f.timers[:0]
	for _, t := range f.timers {
		if !t.at.After(f.now) {
			t.ch <- f.now
		} else {
			remaining = append(remaining, t)
		}
	}
	f.timers = remaining
}
