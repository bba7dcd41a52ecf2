// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func testLimiter(interval time.Duration, maxRetries int) *Limiter {
	l := New(types.RateLimitConfig{
		DefaultLimit: types.BackendLimit{
			MinInterval: interval,
			MaxRetries:  maxRetries,
		},
		BackoffBase:    time.Millisecond,
		BackoffCeiling: 4 * time.Millisecond,
	})
	return l
}

func TestDoImmediateSuccess(t *testing.T) {
	l := testLimiter(0, 3)

	calls := 0
	err := l.Do(context.Background(), "source", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	l := testLimiter(0, 5)

	calls := 0
	err := l.Do(context.Background(), "fast-model", func(context.Context) error {
		calls++
		if calls <= 2 {
			return Transient(errors.New("HTTP 429"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	l := testLimiter(0, 3)

	calls := 0
	cause := errors.New("HTTP 503")
	err := l.Do(context.Background(), "deep-model", func(context.Context) error {
		calls++
		return Transient(cause)
	})

	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "deep-model", exhausted.Backend)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, cause)
}

func TestDoNonTransientNotRetried(t *testing.T) {
	l := testLimiter(0, 5)

	calls := 0
	err := l.Do(context.Background(), "deep-model", func(context.Context) error {
		calls++
		return errors.New("HTTP 401: invalid api key")
	})

	assert.Equal(t, 1, calls)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "deep-model", rejected.Backend)
}

func TestDoMinimumSpacing(t *testing.T) {
	interval := 20 * time.Millisecond
	l := testLimiter(interval, 3)

	const n = 4
	start := time.Now()
	for i := 0; i < n; i++ {
		err := l.Do(context.Background(), "source", func(context.Context) error { return nil })
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// N calls take at least (N-1) x interval, with scheduler tolerance.
	want := time.Duration(n-1) * interval
	assert.GreaterOrEqual(t, elapsed, want-5*time.Millisecond,
		"4 calls took %v, want at least ~%v", elapsed, want)
}

func TestDoBackendsIndependent(t *testing.T) {
	l := testLimiter(50*time.Millisecond, 3)

	// Prime the "source" backend clock.
	require.NoError(t, l.Do(context.Background(), "source", func(context.Context) error { return nil }))

	// A different backend is not delayed by source's interval.
	start := time.Now()
	require.NoError(t, l.Do(context.Background(), "embeddings", func(context.Context) error { return nil }))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestDoContextCancelledDuringBackoff(t *testing.T) {
	l := New(types.RateLimitConfig{
		DefaultLimit:   types.BackendLimit{MaxRetries: 5},
		BackoffBase:    500 * time.Millisecond,
		BackoffCeiling: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, "source", func(context.Context) error {
		return Transient(errors.New("timeout"))
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoContextErrorPropagates(t *testing.T) {
	l := testLimiter(0, 3)

	err := l.Do(context.Background(), "source", func(context.Context) error {
		return fmt.Errorf("call: %w", context.Canceled)
	})
	assert.ErrorIs(t, err, context.Canceled)

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected))
}

func TestTransientMarker(t *testing.T) {
	assert.Nil(t, Transient(nil))

	base := errors.New("boom")
	assert.False(t, IsTransient(base))
	assert.True(t, IsTransient(Transient(base)))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", Transient(base))))
	assert.ErrorIs(t, Transient(base), base)
}
