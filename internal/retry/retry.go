// Package retry re-runs flaky host operations with exponential backoff.
//
// It is used inside tool adapters only (package index refreshes, waiting for
// the process supervisor); the pipeline itself never retries a step.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	Attempts     int // total attempts, including the first
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	OnRetry      func(attempt int, err error, wait time.Duration)
}

// Option adjusts a Policy.
type Option func(*Policy)

// DefaultPolicy returns the policy used when no options are given.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     4,
		InitialDelay: 2 * time.Second,
		MaxDelay:     20 * time.Second,
		Multiplier:   2.0,
	}
}

// Attempts sets the total number of attempts.
func Attempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.Attempts = n
		}
	}
}

// InitialDelay sets the wait before the second attempt.
func InitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// MaxDelay caps the wait between attempts.
func MaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// Multiplier sets the backoff growth factor.
func Multiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// OnRetry registers a hook called before each wait.
func OnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(p *Policy) {
		p.OnRetry = fn
	}
}

// Do runs op until it succeeds, returns a Permanent error, the attempts are
// exhausted, or ctx is done. The last operation error is wrapped in the result.
func Do(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	policy := DefaultPolicy()
	for _, opt := range opts {
		opt(&policy)
	}

	delay := policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return err
		}
		if attempt == policy.Attempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", policy.Attempts, lastErr)
}

// PermanentError marks an error that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
