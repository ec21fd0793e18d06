// Package journal persists finished backtest runs (summary, trades, equity
// trace and rejected orders) to SQLite or CSV and renders them as Org text.
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/cryptobot/backtest"
)

// Run mirrors the runs table: one row per backtest.
type Run struct {
	RunID    string
	Created  time.Time
	Symbol   string
	Strategy string
	Config   []byte // configuration the run was started with, YAML

	Start time.Time
	End   time.Time
	Bars  int

	Trades     int
	Wins       int
	Losses     int
	Rejections int

	StartCash  decimal.Decimal
	FinalCash  decimal.Decimal
	FinalValue decimal.Decimal
	NetPL      decimal.Decimal

	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64
	MaxDDPct     float64

	OpenPosition bool
}

// NewRun summarises res under runID.
func NewRun(runID string, created time.Time, res *backtest.Result) Run {
	s := res.Summary()
	return Run{
		RunID:        runID,
		Created:      created,
		Symbol:       res.Symbol,
		Strategy:     res.Strategy,
		Start:        res.Start,
		End:          res.End,
		Bars:         res.Bars,
		Trades:       s.Trades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		Rejections:   s.Rejections,
		StartCash:    res.StartingCash,
		FinalCash:    res.FinalCash,
		FinalValue:   res.FinalValue,
		NetPL:        s.NetPL,
		ReturnPct:    s.ReturnPct,
		WinRate:      s.WinRate,
		ProfitFactor: s.ProfitFactor,
		MaxDDPct:     s.MaxDrawdownPct,
		OpenPosition: !res.Position.Flat(),
	}
}

// TradeRecord is a closed trade as stored.
type TradeRecord struct {
	RunID      string
	Seq        int
	Symbol     string
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL decimal.Decimal
	Reason     string
}

// EquitySnapshot is one bar of the portfolio value trace.
type EquitySnapshot struct {
	RunID    string
	Index    int
	Time     time.Time
	Close    decimal.Decimal
	Cash     decimal.Decimal
	Quantity decimal.Decimal
	Value    decimal.Decimal
}

func tradeRecords(runID string, res *backtest.Result) []TradeRecord {
	out := make([]TradeRecord, len(res.Trades))
	for i, t := range res.Trades {
		out[i] = TradeRecord{
			RunID:      runID,
			Seq:        t.Seq,
			Symbol:     res.Symbol,
			Quantity:   t.Quantity,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			OpenTime:   t.EntryTime,
			CloseTime:  t.ExitTime,
			RealizedPL: t.PnL,
			Reason:     t.Reason,
		}
	}
	return out
}

func equitySnapshots(runID string, res *backtest.Result) []EquitySnapshot {
	out := make([]EquitySnapshot, len(res.Equity))
	for i, p := range res.Equity {
		out[i] = EquitySnapshot{
			RunID:    runID,
			Index:    p.Index,
			Time:     p.Time,
			Close:    p.Close,
			Cash:     p.Cash,
			Quantity: p.Quantity,
			Value:    p.Value,
		}
	}
	return out
}

// Journal stores a finished run with its trace.
type Journal interface {
	RecordRun(ctx context.Context, run Run, res *backtest.Result) error
	Close() error
}
