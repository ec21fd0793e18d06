package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/feed"
	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/strategies"
)

// Runner takes a configuration through fetch, load, simulate and present.
type Runner struct {
	Fetcher    feed.Fetcher
	Presenters []Presenter
	Logger     *slog.Logger
}

// Run executes one configured backtest. Validation happens before any fetch;
// a failed or empty fetch returns an error wrapping feed.ErrNoData. When a
// presenter fails, the result is returned together with the first error.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if r.Fetcher == nil {
		return nil, fmt.Errorf("backtest: Fetcher is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("backtest: Config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	start, end, err := cfg.Range()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	rows, err := r.Fetcher.Fetch(ctx, cfg.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", feed.ErrNoData, cfg.Symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s", feed.ErrNoData, cfg.Symbol, cfg.StartDate, cfg.EndDate)
	}
	log.Info("fetched bars", "symbol", cfg.Symbol, "rows", len(rows))

	series, err := market.Load(cfg.Symbol, rows)
	if err != nil {
		return nil, err
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	res, err := Run(ctx, series, strat, BrokerConfig(cfg.Broker), Options{
		CloseAtEnd: cfg.Run.CloseAtEnd,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range r.Presenters {
		if err := p.Present(ctx, res); err != nil {
			return res, fmt.Errorf("present: %w", err)
		}
	}
	return res, nil
}

// BrokerConfig converts the file settings to the broker's decimal form.
func BrokerConfig(c config.BrokerConfig) broker.Config {
	return broker.Config{
		StartingCash:   decimal.NewFromFloat(c.StartingCash),
		SizingFraction: decimal.NewFromFloat(c.SizingFraction),
		LotSize:        decimal.NewFromFloat(c.LotSize),
	}
}
