// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit wraps external backend calls with per-backend
// pacing and bounded retry. Every network call in the pipeline (paper
// source, fast model, deep model, embeddings) goes through a Limiter,
// which serializes calls per backend, enforces a minimum delay between
// call starts, and retries transient failures with exponential backoff.
//
// The wrapper is backend-agnostic: it knows nothing about payloads,
// only timing and error classification. Callers mark retryable errors
// with Transient; anything unmarked propagates immediately.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	defaultMaxRetries     = 3
	defaultBackoffBase    = 2 * time.Second
	defaultBackoffCeiling = 60 * time.Second
)

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it retryable (timeout, rate-limit
// response, 5xx). Backends apply this to failures the limiter should
// retry. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err carries the Transient marker.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// ExhaustedError is returned when a backend kept failing transiently
// through the full retry budget.
type ExhaustedError struct {
	Backend  string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("backend %s exhausted after %d attempts: %v", e.Backend, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// RejectedError is returned for non-transient backend failures
// (authentication, validation). These are never retried.
type RejectedError struct {
	Backend string
	Err     error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend %s rejected call: %v", e.Backend, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// backendState serializes calls to one backend and tracks the start
// time of the most recent call.
type backendState struct {
	mu        sync.Mutex
	lastStart time.Time
	limit     types.BackendLimit
}

// Limiter paces and retries calls per named backend. The zero value is
// not usable; construct with New.
type Limiter struct {
	mu      sync.Mutex
	states  map[string]*backendState
	cfg     types.RateLimitConfig
	base    time.Duration
	ceiling time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds a Limiter from cfg, applying defaults for unset backoff
// parameters.
func New(cfg types.RateLimitConfig) *Limiter {
	base := cfg.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	ceiling := cfg.BackoffCeiling
	if ceiling <= 0 {
		ceiling = defaultBackoffCeiling
	}
	return &Limiter{
		states:  make(map[string]*backendState),
		cfg:     cfg,
		base:    base,
		ceiling: ceiling,
		sleep:   sleepCtx,
	}
}

// state returns the per-backend state, creating it on first use.
func (l *Limiter) state(backend string) *backendState {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[backend]
	if !ok {
		limit, found := l.cfg.Backends[backend]
		if !found {
			limit = l.cfg.DefaultLimit
		}
		if limit.MaxRetries <= 0 {
			limit.MaxRetries = defaultMaxRetries
		}
		st = &backendState{limit: limit}
		l.states[backend] = st
	}
	return st
}

// Do executes call under the backend's pacing and retry policy. At
// most one call per backend is in flight at a time; concurrent callers
// queue on the backend's mutex rather than bypass the delay. Transient
// failures are retried up to the backend's retry budget with doubling
// backoff; the final failure surfaces as *ExhaustedError. Unmarked
// failures surface immediately as *RejectedError. Context errors
// propagate as-is.
func (l *Limiter) Do(ctx context.Context, backend string, call func(context.Context) error) error {
	st := l.state(backend)
	st.mu.Lock()
	defer st.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.waitInterval(ctx, st); err != nil {
			return err
		}
		st.lastStart = time.Now()

		err := call(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !IsTransient(err) {
			return &RejectedError{Backend: backend, Err: err}
		}
		if attempt >= st.limit.MaxRetries {
			return &ExhaustedError{Backend: backend, Attempts: attempt + 1, Err: errors.Unwrap(err)}
		}

		backoff := l.base << attempt
		if backoff > l.ceiling {
			backoff = l.ceiling
		}
		if err := l.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

// waitInterval blocks until the backend's minimum inter-call interval
// has elapsed since the previous call start.
func (l *Limiter) waitInterval(ctx context.Context, st *backendState) error {
	if st.limit.MinInterval <= 0 || st.lastStart.IsZero() {
		return nil
	}
	wait := time.Until(st.lastStart.Add(st.limit.MinInterval))
	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
