// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped by Do when every attempt failed.
var ErrExhausted = errors.New("retry budget exhausted")

// Policy bounds a retry loop. Zero Attempts means a single try.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration // overall budget, 0 for none
}

type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, or the policy is spent.
// fn receives the context bounded by p.Timeout and must honor it.
func Do(ctx context.Context, opName string, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.Attempts, 1)

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%s: %w after %d attempts: %w", opName, ErrExhausted, attempt-1, lastErr)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		var perm *permanent
		if errors.As(err, &perm) {
			return fmt.Errorf("%s failed permanently: %w", opName, perm.err)
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: %w after %d attempts: %w", opName, ErrExhausted, attempts, lastErr)
}

func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && i < 32; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
