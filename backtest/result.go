package backtest

import (
	"time"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/shopspring/decimal"
)

// EquityPoint is the account marked to one bar's close.
type EquityPoint struct {
	Index    int             `json:"index"`
	Time     time.Time       `json:"time"`
	Close    decimal.Decimal `json:"close"`
	Cash     decimal.Decimal `json:"cash"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// Rejection is an order the broker refused. The run continues past it.
type Rejection struct {
	Index     int              `json:"index"`
	Time      time.Time        `json:"time"`
	Direction broker.Direction `json:"direction"`
	Reason    string           `json:"reason"`
	Err       error            `json:"-"`
}

// Result is the full trace of a run.
type Result struct {
	Symbol   string    `json:"symbol"`
	Strategy string    `json:"strategy"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Bars     int       `json:"bars"`
	Warmup   int       `json:"warmup"`

	StartingCash decimal.Decimal `json:"starting_cash"`
	FinalCash    decimal.Decimal `json:"final_cash"`
	FinalValue   decimal.Decimal `json:"final_value"`
	RealizedPnL  decimal.Decimal `json:"realized_pnl"`

	// Position is still open at the end unless the run closed it.
	Position broker.Position `json:"position"`

	Equity     []EquityPoint        `json:"equity"`
	Fills      []broker.Fill        `json:"fills"`
	Trades     []broker.TradeRecord `json:"trades"`
	Rejections []Rejection          `json:"rejections"`
}

// Summary is the headline statistics of a Result.
type Summary struct {
	Trades     int `json:"trades"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Rejections int `json:"rejections"`

	WinRate        float64         `json:"win_rate"` // percent of closed trades with positive PnL
	NetPL          decimal.Decimal `json:"net_pl"`
	ReturnPct      float64         `json:"return_pct"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	ProfitFactor   float64         `json:"profit_factor"` // 0 when there are no losing trades
}

func (r *Result) Summary() Summary {
	s := Summary{
		Trades:     len(r.Trades),
		Rejections: len(r.Rejections),
		NetPL:      r.FinalValue.Sub(r.StartingCash),
	}

	grossWin, grossLoss := decimal.Zero, decimal.Zero
	for _, t := range r.Trades {
		switch {
		case t.PnL.IsPositive():
			s.Wins++
			grossWin = grossWin.Add(t.PnL)
		case t.PnL.IsNegative():
			s.Losses++
			grossLoss = grossLoss.Sub(t.PnL)
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	if grossLoss.IsPositive() {
		s.ProfitFactor = grossWin.Div(grossLoss).InexactFloat64()
	}
	if r.StartingCash.IsPositive() {
		s.ReturnPct = s.NetPL.Div(r.StartingCash).InexactFloat64() * 100
	}

	peak := r.StartingCash
	for _, p := range r.Equity {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
		}
		if peak.IsPositive() {
			dd := peak.Sub(p.Value).Div(peak).InexactFloat64() * 100
			if dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}
	return s
}

// Closes returns the close price of every bar, for charting.
func (r *Result) Closes() []float64 {
	out := make([]float64, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Close.InexactFloat64()
	}
	return out
}
