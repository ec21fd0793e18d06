package httpapi

import (
	"time"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/journal"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BacktestResponse is returned by POST /api/v1/backtests.
type BacktestResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Summary backtest.Summary `json:"summary"`
	Result  *backtest.Result `json:"result"`
	Chart   *Chart           `json:"chart,omitempty"`
}

// RunResponse is the JSON form of a journaled run.
type RunResponse struct {
	RunID        string    `json:"run_id"`
	Created      time.Time `json:"created"`
	Symbol       string    `json:"symbol"`
	Strategy     string    `json:"strategy"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Bars         int       `json:"bars"`
	Trades       int       `json:"trades"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Rejections   int       `json:"rejections"`
	StartCash    string    `json:"start_cash"`
	FinalValue   string    `json:"final_value"`
	NetPL        string    `json:"net_pl"`
	ReturnPct    float64   `json:"return_pct"`
	WinRate      float64   `json:"win_rate"`
	MaxDDPct     float64   `json:"max_dd_pct"`
	OpenPosition bool      `json:"open_position"`

	TradeList []TradeResponse  `json:"trade_list,omitempty"`
	Equity    []EquityResponse `json:"equity,omitempty"`
	Chart     *Chart           `json:"chart,omitempty"`
}

type TradeResponse struct {
	Seq        int       `json:"seq"`
	Quantity   string    `json:"quantity"`
	EntryPrice string    `json:"entry_price"`
	ExitPrice  string    `json:"exit_price"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `json:"close_time"`
	RealizedPL string    `json:"realized_pl"`
	Reason     string    `json:"reason"`
}

// EquityResponse is one bar of a journaled run's value trace.
type EquityResponse struct {
	Bar      int       `json:"bar"`
	Time     time.Time `json:"time"`
	Close    string    `json:"close"`
	Cash     string    `json:"cash"`
	Quantity string    `json:"quantity"`
	Value    string    `json:"value"`
}

func runResponse(r journal.Run) RunResponse {
	return RunResponse{
		RunID:        r.RunID,
		Created:      r.Created,
		Symbol:       r.Symbol,
		Strategy:     r.Strategy,
		Start:        r.Start,
		End:          r.End,
		Bars:         r.Bars,
		Trades:       r.Trades,
		Wins:         r.Wins,
		Losses:       r.Losses,
		Rejections:   r.Rejections,
		StartCash:    r.StartCash.String(),
		FinalValue:   r.FinalValue.String(),
		NetPL:        r.NetPL.String(),
		ReturnPct:    r.ReturnPct,
		WinRate:      r.WinRate,
		MaxDDPct:     r.MaxDDPct,
		OpenPosition: r.OpenPosition,
	}
}

func tradeResponse(t journal.TradeRecord) TradeResponse {
	return TradeResponse{
		Seq:        t.Seq,
		Quantity:   t.Quantity.String(),
		EntryPrice: t.EntryPrice.String(),
		ExitPrice:  t.ExitPrice.String(),
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		RealizedPL: t.RealizedPL.String(),
		Reason:     t.Reason,
	}
}

func equityResponse(e journal.EquitySnapshot) EquityResponse {
	return EquityResponse{
		Bar:      e.Index,
		Time:     e.Time,
		Close:    e.Close.String(),
		Cash:     e.Cash.String(),
		Quantity: e.Quantity.String(),
		Value:    e.Value.String(),
	}
}
