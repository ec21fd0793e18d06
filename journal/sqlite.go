package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/cryptobot/backtest"
)

var _ Journal = (*SQLite)(nil)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordRun writes the run, its trades, equity trace and rejections in one
// transaction.
func (j *SQLite) RecordRun(ctx context.Context, run Run, res *backtest.Result) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, symbol, strategy, config, start_time, end_time, bars,
		 trades, wins, losses, rejections, start_cash, final_cash, final_value, net_pl,
		 return_pct, win_rate, profit_factor, max_dd_pct, open_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created.UTC(), run.Symbol, run.Strategy, run.Config, run.Start.UTC(), run.End.UTC(), run.Bars,
		run.Trades, run.Wins, run.Losses, run.Rejections, run.StartCash, run.FinalCash, run.FinalValue, run.NetPL,
		run.ReturnPct, run.WinRate, run.ProfitFactor, run.MaxDDPct, run.OpenPosition,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range tradeRecords(run.RunID, res) {
		if err := insertTrade(ctx, tx, t); err != nil {
			return err
		}
	}

	eq, err := tx.PrepareContext(ctx, `
		INSERT INTO equity (run_id, bar, time, close, cash, quantity, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer eq.Close()
	for _, e := range equitySnapshots(run.RunID, res) {
		if _, err := eq.ExecContext(ctx, e.RunID, e.Index, e.Time.UTC(), e.Close, e.Cash, e.Quantity, e.Value); err != nil {
			return fmt.Errorf("insert equity bar %d: %w", e.Index, err)
		}
	}

	for _, r := range res.Rejections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rejections (run_id, bar, time, direction, reason)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, r.Index, r.Time.UTC(), r.Direction.String(), r.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert rejection: %w", err)
		}
	}

	return tx.Commit()
}

func insertTrade(ctx context.Context, tx *sql.Tx, t TradeRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trades
		(run_id, seq, symbol, quantity, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Symbol, t.Quantity, t.EntryPrice,
		t.ExitPrice, t.OpenTime.UTC(), t.CloseTime.UTC(), t.RealizedPL, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert trade %d: %w", t.Seq, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
