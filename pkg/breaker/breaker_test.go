package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

var errDown = errors.New("store down")

func TestBreaker_TripsAndRejects(t *testing.T) {
	b := New(testConfig("test-trip"), nil)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return errDown }), errDown)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.True(t, IsOpen(err))
	assert.False(t, called)
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	b := New(testConfig("test-recover"), nil)
	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return errDown })
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, b.State())
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CanceledCallsDoNotTrip(t *testing.T) {
	b := New(testConfig("test-cancel"), nil)
	for i := 0; i < 5; i++ {
		_ = b.Do(func() error { return context.Canceled })
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestCall_ReturnsTypedValue(t *testing.T) {
	b := New(testConfig("test-call"), nil)

	n, err := Call(b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = Call(b, func() (int, error) { return 7, errDown })
	assert.ErrorIs(t, err, errDown)
	assert.Zero(t, n)
}
