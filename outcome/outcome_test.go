package outcome_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/effectum/outcome"
)

var errBoom = errors.New("boom")

func TestOutcome_Discriminant(t *testing.T) {
	ok := outcome.Success[int, error](42)
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())

	bad := outcome.Failure[int](errBoom)
	assert.True(t, bad.IsFailure())
	assert.False(t, bad.IsSuccess())

	v, present := ok.Value()
	require.True(t, present)
	assert.Equal(t, 42, v)

	err, present := bad.Err()
	require.True(t, present)
	assert.Equal(t, errBoom, err)
}

func TestOutcome_MustValue(t *testing.T) {
	assert.Equal(t, "x", outcome.Success[string, error]("x").MustValue())

	assert.Panics(t, func() {
		_ = outcome.Failure[string](errBoom).MustValue()
	})
}

func TestOutcome_Match_ForcesBothBranches(t *testing.T) {
	got := outcome.Match(
		outcome.Success[int, error](7),
		func(v int) string { return strconv.Itoa(v) },
		func(err error) string { return err.Error() },
	)
	assert.Equal(t, "7", got)

	got = outcome.Match(
		outcome.Failure[int](errBoom),
		func(v int) string { return strconv.Itoa(v) },
		func(err error) string { return err.Error() },
	)
	assert.Equal(t, "boom", got)
}

func TestOutcome_Map_SkipsFailure(t *testing.T) {
	doubled := outcome.Map(outcome.Success[int, error](21), func(v int) int { return v * 2 })
	assert.Equal(t, 42, doubled.MustValue())

	untouched := outcome.Map(outcome.Failure[int](errBoom), func(v int) int {
		t.Fatal("map fn must not run on Failure")
		return 0
	})
	err, _ := untouched.Err()
	assert.Equal(t, errBoom, err)
}

func TestOutcome_MapError_PreservesDiscriminant(t *testing.T) {
	// Success: identity on the value.
	ok := outcome.MapError(outcome.Success[int, error](5), func(err error) error {
		t.Fatal("mapError fn must not run on Success")
		return nil
	})
	assert.Equal(t, 5, ok.MustValue())

	// Failure: only the error value changes.
	wrapped := outcome.MapError(outcome.Failure[int](errBoom), func(err error) error {
		return errors.New("wrapped: " + err.Error())
	})
	assert.True(t, wrapped.IsFailure())
	err, _ := wrapped.Err()
	assert.EqualError(t, err, "wrapped: boom")
}

func TestOutcome_FlatMap_ShortCircuits(t *testing.T) {
	invoked := false
	res := outcome.FlatMap(outcome.Failure[int](errBoom), func(v int) outcome.Outcome[int, error] {
		invoked = true
		return outcome.Success[int, error](v + 1)
	})
	assert.False(t, invoked)
	assert.True(t, res.IsFailure())
}

func TestOutcome_From(t *testing.T) {
	assert.Equal(t, 3, outcome.From(3, nil).MustValue())
	assert.True(t, outcome.From(0, errBoom).IsFailure())
}
