// Package indicators provides streaming technical indicators for the backtest
// loop and batch helpers for whole-series work.
package indicators

import (
	"github.com/rustyeddy/cryptobot/market"
	"github.com/shopspring/decimal"
)

// Indicator computes a single streaming value from bars.
// It is deterministic: the same bars in the same order give the same values.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current reading. It is zero while !Ready(); callers
	// should always check Ready().
	Value() decimal.Decimal
}
