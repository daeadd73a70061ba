package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/effectum/clock"
)

func TestFake_AdvanceFiresDueTimers(t *testing.T) {
	fake := clock.NewFake(time.Unix(100, 0))

	early := fake.After(time.Second)
	late := fake.After(time.Minute)

	fake.Advance(2 * time.Second)

	select {
	case <-early:
	default:
		t.Fatal("due timer did not fire")
	}
	select {
	case <-late:
		t.Fatal("future timer fired early")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case <-late:
	default:
		t.Fatal("timer did not fire after its deadline passed")
	}
}

func TestFake_NowTracksAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	fake := clock.NewFake(start)
	fake.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), fake.Now())
}

func TestFake_NonPositiveDelayFiresImmediately(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("zero-delay timer must be ready immediately")
	}
}

func TestSpanBetween(t *testing.T) {
	from := time.Unix(10, 0)
	to := time.Unix(25, 0)
	span := clock.SpanBetween(from, to)
	require.Equal(t, 15*time.Second, span.Duration())
}
