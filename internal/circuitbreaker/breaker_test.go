package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(func() error { return errBoom }), errBoom)
	}

	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(3, time.Minute)

	require.Error(t, b.Do(func() error { return errBoom }))
	require.Error(t, b.Do(func() error { return errBoom }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return errBoom }))
	require.Error(t, b.Do(func() error { return errBoom }))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	require.Error(t, b.Do(func() error { return errBoom }))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)

	// First call after cooldown goes through; success closes the breaker.
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	require.Error(t, b.Do(func() error { return errBoom }))
	time.Sleep(20 * time.Millisecond)

	require.ErrorIs(t, b.Do(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrOpen)
}

func TestBreakerReset(t *testing.T) {
	b := New(1, time.Minute)

	require.Error(t, b.Do(func() error { return errBoom }))
	require.Equal(t, StateOpen, b.State())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Do(func() error { return nil }))
}
