// Package backtest replays a bar series through a strategy and a simulated
// broker and collects the resulting trace.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/indicators"
	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/strategies"
)

// DefaultCloseReason is recorded on the trade closed by Options.CloseAtEnd.
const DefaultCloseReason = "EndOfRun"

// Options controls how Run ends and where it logs.
type Options struct {
	// If true, an open position is sold at the last bar's close.
	// The trade reason will be CloseReason (or DefaultCloseReason if empty).
	CloseAtEnd  bool
	CloseReason string

	Logger *slog.Logger
}

// Run executes the backtest loop over every bar of series:
//  1. update indicators with the bar
//  2. ask the strategy for an intent
//  3. submit it to the broker, recording rejections
//  4. record the marked-to-close portfolio value
//
// Each call builds its own broker and indicator engine, so repeated runs
// over the same inputs give identical results. ctx is checked between bars.
func Run(ctx context.Context, series *market.Series, strat strategies.Strategy, cfg broker.Config, opts Options) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("backtest: Series is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: Strategy is required")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("symbol", series.Symbol(), "strategy", strat.Name())

	b, err := broker.New(cfg)
	if err != nil {
		return nil, err
	}
	ind := indicators.NewEngine()
	if err := strat.Setup(ind); err != nil {
		return nil, fmt.Errorf("backtest: setup %s: %w", strat.Name(), err)
	}
	log.Debug("indicators registered", "names", ind.Names(), "warmup", ind.Warmup())

	res := &Result{
		Symbol:       series.Symbol(),
		Strategy:     strat.Name(),
		StartingCash: cfg.StartingCash,
		Warmup:       ind.Warmup(),
		Bars:         series.Len(),
		Start:        series.At(0).Time,
		End:          series.At(series.Len() - 1).Time,
		Equity:       make([]EquityPoint, 0, series.Len()),
	}

	it := series.Iterator()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest: cancelled at bar %d: %w", it.Index(), err)
		}

		i, bar := it.Index(), it.Bar()
		ind.Update(bar)

		if in := strat.Decide(b.Position(), ind.Snapshot()); in != nil {
			fill, err := b.Submit(*in, bar, i)
			switch {
			case err == nil:
				res.Fills = append(res.Fills, fill)
				log.Debug("fill",
					slog.Int("bar", i),
					slog.String("direction", fill.Direction.String()),
					slog.String("price", fill.Price.String()),
					slog.String("quantity", fill.Quantity.String()),
				)
			case errors.Is(err, broker.ErrInsufficientFunds), errors.Is(err, broker.ErrInvalidOrder):
				res.Rejections = append(res.Rejections, Rejection{
					Index:     i,
					Time:      bar.Time,
					Direction: in.Direction,
					Reason:    err.Error(),
					Err:       err,
				})
				log.Warn("order rejected",
					slog.Int("bar", i),
					slog.String("direction", in.Direction.String()),
					slog.String("error", err.Error()),
				)
			default:
				return nil, fmt.Errorf("backtest: bar %d: %w", i, err)
			}
		}

		res.Equity = append(res.Equity, equityPoint(b, bar, i))
	}

	if opts.CloseAtEnd {
		reason := opts.CloseReason
		if reason == "" {
			reason = DefaultCloseReason
		}
		last := series.Len() - 1
		bar := series.At(last)
		fill, closed, err := b.CloseOut(bar, last, reason)
		if err != nil {
			return nil, fmt.Errorf("backtest: close at end: %w", err)
		}
		if closed {
			res.Fills = append(res.Fills, fill)
			res.Equity[last] = equityPoint(b, bar, last)
		}
	}

	acct := b.Account()
	res.FinalCash = acct.Cash
	res.Position = acct.Position
	res.RealizedPnL = acct.RealizedPnL
	res.FinalValue = b.Value(series.At(series.Len() - 1).Close)
	res.Trades = b.Trades()

	log.Info("backtest complete",
		slog.Int("bars", res.Bars),
		slog.Int("trades", len(res.Trades)),
		slog.Int("rejections", len(res.Rejections)),
		slog.String("final_value", res.FinalValue.StringFixed(2)),
	)
	return res, nil
}

func equityPoint(b *broker.Broker, bar market.Bar, i int) EquityPoint {
	pos := b.Position()
	return EquityPoint{
		Index:    i,
		Time:     bar.Time,
		Close:    bar.Close,
		Cash:     b.Cash(),
		Quantity: pos.Quantity,
		Value:    b.Value(bar.Close),
	}
}
