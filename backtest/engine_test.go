package backtest

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seriesOf(t *testing.T, closes ...float64) *market.Series {
	t.Helper()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]market.RawRow, len(closes))
	for i, c := range closes {
		rows[i] = market.RawRow{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	s, err := market.Load("BTC-USD", rows)
	require.NoError(t, err)
	return s
}

func smaCross(t *testing.T, fast, slow int) strategies.Strategy {
	t.Helper()
	s, err := strategies.NewSMACross(fast, slow)
	require.NoError(t, err)
	return s
}

func cashConfig(cash, fraction string) broker.Config {
	return broker.Config{StartingCash: d(cash), SizingFraction: d(fraction)}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// assertValueInvariant checks value == cash + quantity*close on every bar.
func assertValueInvariant(t *testing.T, res *Result) {
	t.Helper()
	for _, p := range res.Equity {
		want := p.Cash.Add(p.Quantity.Mul(p.Close))
		assert.True(t, want.Equal(p.Value), "bar %d: value %s != %s", p.Index, p.Value, want)
		assert.False(t, p.Cash.IsNegative(), "bar %d: negative cash", p.Index)
	}
}

func TestRunFlatSeries(t *testing.T) {
	s := seriesOf(t, 10, 10, 10, 10, 10)

	res, err := Run(context.Background(), s, smaCross(t, 2, 4), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Fills)
	assert.True(t, res.FinalValue.Equal(d("1000")))
	require.Len(t, res.Equity, 5)
	for _, p := range res.Equity {
		assert.True(t, p.Value.Equal(d("1000")))
	}
	assert.Equal(t, 4, res.Warmup)
	assertValueInvariant(t, res)
}

func TestRunSingleUpCross(t *testing.T) {
	s := seriesOf(t, 10, 10, 10, 10, 10, 11, 12, 13)

	res, err := Run(context.Background(), s, smaCross(t, 2, 4), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Fills, 1)
	fill := res.Fills[0]
	assert.Equal(t, broker.EnterLong, fill.Direction)
	assert.Equal(t, 5, fill.Index)
	assert.True(t, fill.Price.Equal(d("11")))
	assert.True(t, fill.Quantity.Equal(d("90")))

	assert.Empty(t, res.Trades, "position stays open")
	assert.False(t, res.Position.Flat())
	assert.Equal(t, 5, res.Position.EntryIndex)
	assert.True(t, res.FinalCash.Equal(d("10")))
	assert.True(t, res.FinalValue.Equal(d("10").Add(d("90").Mul(d("13")))))
	assertValueInvariant(t, res)

	// value is flat through the entry bar
	for _, p := range res.Equity[:6] {
		assert.True(t, p.Value.Equal(d("1000")), "bar %d", p.Index)
	}
}

func TestRunRoundTrip(t *testing.T) {
	s := seriesOf(t, 10, 10, 10, 12, 13, 9, 8)

	res, err := Run(context.Background(), s, smaCross(t, 1, 3), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, 1, tr.Seq)
	assert.Equal(t, 3, tr.EntryIndex)
	assert.Equal(t, 5, tr.ExitIndex)
	assert.True(t, tr.Quantity.Equal(d("83")))
	assert.True(t, tr.PnL.Equal(d("-249")))
	assert.True(t, res.Position.Flat())
	assert.True(t, res.FinalValue.Equal(d("751")))
	assert.True(t, res.RealizedPnL.Equal(d("-249")))
	assertValueInvariant(t, res)
}

func TestRunExitAtZeroClose(t *testing.T) {
	s := seriesOf(t, 10, 10, 12, 0)

	res, err := Run(context.Background(), s, smaCross(t, 1, 2), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)

	assert.Empty(t, res.Rejections)
	require.Len(t, res.Fills, 2)
	assert.Equal(t, broker.Exit, res.Fills[1].Direction)
	assert.True(t, res.Fills[1].Price.IsZero())

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, 2, tr.EntryIndex)
	assert.Equal(t, 3, tr.ExitIndex)
	assert.True(t, tr.Quantity.Equal(d("83")))
	assert.True(t, tr.PnL.Equal(d("-996")))
	assert.True(t, res.Position.Flat())
	assert.True(t, res.FinalValue.Equal(d("4")))
	assertValueInvariant(t, res)
}

func TestRunEqualPeriodsNeverTrade(t *testing.T) {
	s := seriesOf(t, 10, 12, 9, 14, 8, 15, 7, 16)

	res, err := Run(context.Background(), s, smaCross(t, 3, 3), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Empty(t, res.Fills)
	assert.Empty(t, res.Trades)
	assert.True(t, res.FinalValue.Equal(d("1000")))
}

func TestRunInsufficientCashRejectsEveryEntry(t *testing.T) {
	s := seriesOf(t, 10, 10, 10, 12, 13, 9, 8, 12)

	res, err := Run(context.Background(), s, smaCross(t, 1, 3), cashConfig("1", "1"), Options{Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Rejections, 2)
	for i, want := range []int{3, 7} {
		rj := res.Rejections[i]
		assert.Equal(t, want, rj.Index)
		assert.Equal(t, broker.EnterLong, rj.Direction)
		assert.ErrorIs(t, rj.Err, broker.ErrInsufficientFunds)
	}
	assert.Empty(t, res.Fills)
	assert.Empty(t, res.Trades)
	assert.True(t, res.FinalCash.Equal(d("1")))
	assert.True(t, res.FinalValue.Equal(d("1")))
	assertValueInvariant(t, res)
}

func TestRunCloseAtEnd(t *testing.T) {
	s := seriesOf(t, 10, 10, 10, 10, 10, 11, 12, 13)

	res, err := Run(context.Background(), s, smaCross(t, 2, 4), cashConfig("1000", "1"), Options{CloseAtEnd: true, Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, DefaultCloseReason, tr.Reason)
	assert.Equal(t, 7, tr.ExitIndex)
	assert.True(t, tr.PnL.Equal(d("180")))
	assert.True(t, res.Position.Flat())
	assert.True(t, res.FinalCash.Equal(d("1180")))
	assert.True(t, res.FinalValue.Equal(d("1180")))

	last := res.Equity[len(res.Equity)-1]
	assert.True(t, last.Quantity.IsZero())
	assert.True(t, last.Value.Equal(d("1180")))
	assertValueInvariant(t, res)

	t.Run("custom reason and flat end", func(t *testing.T) {
		res, err := Run(context.Background(), s, smaCross(t, 2, 4), cashConfig("1000", "1"),
			Options{CloseAtEnd: true, CloseReason: "Stop", Logger: quietLogger()})
		require.NoError(t, err)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, "Stop", res.Trades[0].Reason)

		flat, err := Run(context.Background(), seriesOf(t, 10, 10, 10), smaCross(t, 1, 2), cashConfig("1000", "1"),
			Options{CloseAtEnd: true, Logger: quietLogger()})
		require.NoError(t, err)
		assert.Empty(t, flat.Trades)
	})
}

func TestRunIsDeterministic(t *testing.T) {
	closes := []float64{100, 101, 99, 98, 102, 105, 107, 104, 101, 99, 97, 100, 104, 108, 111, 109, 106, 103, 105, 110}
	s := seriesOf(t, closes...)
	strat := smaCross(t, 3, 5)
	cfg := cashConfig("10000", "0.95")

	first, err := Run(context.Background(), s, strat, cfg, Options{Logger: quietLogger()})
	require.NoError(t, err)
	second, err := Run(context.Background(), s, strat, cfg, Options{Logger: quietLogger()})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Trades)
	assertValueInvariant(t, first)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, seriesOf(t, 1, 2, 3), smaCross(t, 1, 2), cashConfig("1000", "1"), Options{Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRunArguments(t *testing.T) {
	s := seriesOf(t, 1, 2, 3)

	_, err := Run(context.Background(), nil, smaCross(t, 1, 2), cashConfig("1000", "1"), Options{})
	assert.EqualError(t, err, "backtest: Series is required")

	_, err = Run(context.Background(), s, nil, cashConfig("1000", "1"), Options{})
	assert.EqualError(t, err, "backtest: Strategy is required")

	_, err = Run(context.Background(), s, smaCross(t, 1, 2), cashConfig("0", "1"), Options{})
	assert.Error(t, err)
}

func TestRunLogsRejections(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(context.Background(), seriesOf(t, 10, 10, 10, 12), smaCross(t, 1, 3), cashConfig("1", "1"), Options{Logger: log})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "order rejected")
	assert.Contains(t, buf.String(), "backtest complete")
	assert.Contains(t, buf.String(), "indicators registered")
}
