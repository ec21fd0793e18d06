// Package feed acquires historical bars for a backtest: from CSV files, from
// Alpaca market data, and through a local Parquet cache.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/cryptobot/market"
)

var (
	// ErrFetch wraps every failure to obtain bars from a source.
	ErrFetch = errors.New("fetch failed")

	// ErrNoData means a run has nothing to replay, either because the fetch
	// failed or because it returned no rows.
	ErrNoData = errors.New("no data")
)

// Fetcher returns the rows for symbol in [start, end), oldest first.
// A zero start or end leaves that side of the range open.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error)

func (f FetcherFunc) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error) {
	return f(ctx, symbol, start, end)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
