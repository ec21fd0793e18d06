// Package market holds the price data a backtest replays: bars, the raw rows
// they are loaded from, and the validated Series.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV period for a single instrument.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// RawRow is a bar as delivered by a data source, before validation.
type RawRow struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (r RawRow) bar() Bar {
	return Bar{
		Time:   r.Time.UTC(),
		Open:   decimal.NewFromFloat(r.Open),
		High:   decimal.NewFromFloat(r.High),
		Low:    decimal.NewFromFloat(r.Low),
		Close:  decimal.NewFromFloat(r.Close),
		Volume: decimal.NewFromFloat(r.Volume),
	}
}
