package indicators

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/shopspring/decimal"
)

// Crossover tracks the sign of fast-slow between two indicators that are
// updated elsewhere (before it, in the same Engine). Signal is +1 on the bar
// the difference moves from <= 0 to > 0, -1 on the bar it moves from >= 0
// to < 0, and 0 otherwise. The first bar on which both inputs are ready
// only seeds the previous difference.
type Crossover struct {
	fast, slow Indicator

	lastDiff decimal.Decimal
	seeded   bool
	signal   int
}

func NewCrossover(fast, slow Indicator) *Crossover {
	return &Crossover{fast: fast, slow: slow}
}

func (c *Crossover) Name() string {
	return fmt.Sprintf("Cross(%s,%s)", c.fast.Name(), c.slow.Name())
}

func (c *Crossover) Warmup() int {
	return max(c.fast.Warmup(), c.slow.Warmup())
}

func (c *Crossover) Reset() {
	c.lastDiff = decimal.Zero
	c.seeded = false
	c.signal = 0
}

// Update reads the current values of both inputs. The bar itself is unused.
func (c *Crossover) Update(_ market.Bar) {
	c.signal = 0
	if !c.fast.Ready() || !c.slow.Ready() {
		return
	}

	diff := c.fast.Value().Sub(c.slow.Value())
	if c.seeded {
		switch {
		case diff.IsPositive() && !c.lastDiff.IsPositive():
			c.signal = 1
		case diff.IsNegative() && !c.lastDiff.IsNegative():
			c.signal = -1
		}
	}
	c.lastDiff = diff
	c.seeded = true
}

func (c *Crossover) Ready() bool {
	return c.seeded
}

// Signal returns +1, -1 or 0 for the latest bar.
func (c *Crossover) Signal() int {
	return c.signal
}

func (c *Crossover) Value() decimal.Decimal {
	return decimal.NewFromInt(int64(c.signal))
}
