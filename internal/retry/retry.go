package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
)

// StatusError is a non-2xx answer of an upstream API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d - %s", e.Op, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt: 429 and 5xx.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable classifies an attempt error. Transport failures and timeouts are
// retryable, so is a StatusError with 429 or 5xx. Errors marked with
// backoff.Permanent and context cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Retryable()
	}
	return true
}

// State is the progress of one retried operation.
type State struct {
	Attempt int
	Elapsed time.Duration
	Err     error
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy retries an operation up to MaxAttempts times with exponential waits
// between attempts (1s, 2s, 4s with the defaults).
type Policy struct {
	maxAttempts int
	initial     time.Duration
	multiplier  float64
	sleep       SleepFunc
	observe     func(op string, st State)

	logger logger.Logger
}

func NewPolicy(cfg config.RetryConfig, logger logger.Logger) *Policy {
	return &Policy{
		maxAttempts: cfg.Attempts,
		initial:     cfg.InitialBackoff,
		multiplier:  cfg.Multiplier,
		sleep:       sleepContext,
		logger:      logger,
	}
}

// WithSleep swaps the wait implementation, e.g. to record waits in tests.
func (p *Policy) WithSleep(sleep SleepFunc) *Policy {
	cp := *p
	cp.sleep = sleep
	return &cp
}

// WithObserver registers fn to be told the final state of every operation.
func (p *Policy) WithObserver(fn func(op string, st State)) *Policy {
	cp := *p
	cp.observe = fn
	return &cp
}

func (p *Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	b.Multiplier = p.multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.Reset()
	return b
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. The returned State tells how many attempts were made.
func (p *Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) (st State, err error) {
	if p.observe != nil {
		defer func() { p.observe(op, st) }()
	}

	b := p.newBackOff()

	for {
		st.Attempt++
		opErr := fn(ctx)
		if opErr == nil {
			st.Err = nil
			return st, nil
		}
		st.Err = unwrapPermanent(opErr)

		if !IsRetryable(opErr) {
			p.logger.Errorf("%s: non-retryable error: %s", op, st.Err)
			return st, st.Err
		}

		p.logger.Warnf("%s failed (attempt %d/%d): %s", op, st.Attempt, p.maxAttempts, st.Err)
		if st.Attempt >= p.maxAttempts {
			return st, fmt.Errorf("%w: %s failed after %d attempts", st.Err, op, st.Attempt)
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return st, fmt.Errorf("%w: %s backoff stopped", st.Err, op)
		}
		p.logger.Infof("retrying %s in %.1fs...", op, wait.Seconds())
		if err := p.sleep(ctx, wait); err != nil {
			return st, fmt.Errorf("%w: %s retry interrupted", err, op)
		}
		st.Elapsed += wait
	}
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) && perm.Err != nil {
		return perm.Err
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
