package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/pkg/id"
)

var _ backtest.Presenter = (*Presenter)(nil)

// Presenter records every result it receives to J under a fresh run ID.
type Presenter struct {
	J      Journal
	Config []byte // stored with each run, optional
	Now    func() time.Time
	Logger *slog.Logger

	// LastRunID is the ID of the most recently recorded run.
	LastRunID string
}

func (p *Presenter) Present(ctx context.Context, res *backtest.Result) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	created := now().UTC()

	run := NewRun(id.At(created), created, res)
	run.Config = p.Config
	if err := p.J.RecordRun(ctx, run, res); err != nil {
		return err
	}
	p.LastRunID = run.RunID

	if p.Logger != nil {
		p.Logger.Info("run journaled", "run_id", run.RunID, "trades", run.Trades)
	}
	return nil
}
