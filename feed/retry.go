package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyeddy/cryptobot/market"
)

// Retrying wraps a Fetcher with a rate limit, a per-attempt timeout and
// exponential backoff. Context cancellation is never retried.
//
// Sources that cannot pass the context down (the Alpaca client) keep running
// past Timeout; a result that arrives after the deadline is discarded and the
// attempt counts as timed out.
type Retrying struct {
	Source    Fetcher
	Attempts  int           // total tries; values below 1 mean 1
	BaseDelay time.Duration // first backoff, doubled after each failure
	Timeout   time.Duration // per attempt; 0 disables
	Limiter   *rate.Limiter // nil disables
}

// NewRateLimiter allows perMinute requests per minute with a burst of one.
// perMinute <= 0 returns nil (unlimited).
func NewRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func (r Retrying) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error) {
	var rows []market.RawRow
	attempt := 0
	err := Retry(ctx, max(r.Attempts, 1), r.BaseDelay, func() error {
		attempt++
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		actx, cancel := ctx, context.CancelFunc(func() {})
		if r.Timeout > 0 {
			actx, cancel = context.WithTimeout(ctx, r.Timeout)
		}
		defer cancel()

		var err error
		rows, err = r.Source.Fetch(actx, symbol, start, end)
		if err == nil && actx.Err() != nil {
			rows, err = nil, fmt.Errorf("%w: attempt %d finished late: %w", ErrFetch, attempt, actx.Err())
		}
		if err != nil {
			slog.Warn("fetch attempt failed", "symbol", symbol, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return rows, nil
}

// Retry calls fn up to maxAttempts times with exponential backoff starting at
// baseDelay. It returns nil on the first successful call, or the last error
// if all attempts fail. The function respects context cancellation between
// retries.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Don't sleep after the last failed attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
