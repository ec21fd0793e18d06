package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/broker"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return day0.AddDate(0, 0, i) }

// sampleResult is a four-bar run with one winning trade and one rejection.
func sampleResult() *backtest.Result {
	return &backtest.Result{
		Symbol:       "BTC-USD",
		Strategy:     "sma-cross(2,4)",
		Start:        day(0),
		End:          day(3),
		Bars:         4,
		StartingCash: d("1000"),
		FinalCash:    d("1180"),
		FinalValue:   d("1180"),
		RealizedPnL:  d("180"),
		Equity: []backtest.EquityPoint{
			{Index: 0, Time: day(0), Close: d("10"), Cash: d("1000"), Quantity: d("0"), Value: d("1000")},
			{Index: 1, Time: day(1), Close: d("11"), Cash: d("10"), Quantity: d("90"), Value: d("1000")},
			{Index: 2, Time: day(2), Close: d("12"), Cash: d("10"), Quantity: d("90"), Value: d("1090")},
			{Index: 3, Time: day(3), Close: d("13"), Cash: d("1180"), Quantity: d("0"), Value: d("1180")},
		},
		Trades: []broker.TradeRecord{{
			Seq:        1,
			EntryIndex: 1,
			ExitIndex:  3,
			EntryTime:  day(1),
			ExitTime:   day(3),
			EntryPrice: d("11"),
			ExitPrice:  d("13"),
			Quantity:   d("90"),
			PnL:        d("180"),
			Reason:     "cross down",
		}},
		Rejections: []backtest.Rejection{{
			Index:     2,
			Time:      day(2),
			Direction: broker.EnterLong,
			Reason:    "insufficient funds",
		}},
	}
}

func TestNewRun(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	run := NewRun("R1", created, sampleResult())

	assert.Equal(t, "R1", run.RunID)
	assert.Equal(t, created, run.Created)
	assert.Equal(t, "BTC-USD", run.Symbol)
	assert.Equal(t, 4, run.Bars)
	assert.Equal(t, 1, run.Trades)
	assert.Equal(t, 1, run.Wins)
	assert.Equal(t, 0, run.Losses)
	assert.Equal(t, 1, run.Rejections)
	assert.True(t, run.NetPL.Equal(d("180")))
	assert.InDelta(t, 18.0, run.ReturnPct, 1e-9)
	assert.InDelta(t, 100.0, run.WinRate, 1e-9)
	assert.False(t, run.OpenPosition)
}

func TestRecordsFromResult(t *testing.T) {
	t.Parallel()

	res := sampleResult()

	trades := tradeRecords("R1", res)
	assert.Len(t, trades, 1)
	assert.Equal(t, "R1", trades[0].RunID)
	assert.Equal(t, "BTC-USD", trades[0].Symbol)
	assert.Equal(t, day(3), trades[0].CloseTime)

	eq := equitySnapshots("R1", res)
	assert.Len(t, eq, 4)
	assert.Equal(t, 2, eq[2].Index)
	assert.True(t, eq[2].Value.Equal(d("1090")))
}
