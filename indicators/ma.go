package indicators

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/shopspring/decimal"
	ta "github.com/thrasher-corp/gct-ta/indicators"
)

// SimpleMA is a streaming simple moving average of closes. It keeps a ring of
// the last period closes and an exact running sum, so each update is O(1)
// and the value equals a from-scratch mean of the window.
type SimpleMA struct {
	period int
	window []decimal.Decimal
	next   int
	count  int
	sum    decimal.Decimal
	div    decimal.Decimal
}

// NewSMA creates a simple moving average over period bars. It panics if
// period is not positive.
func NewSMA(period int) *SimpleMA {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: SMA period must be positive, got %d", period))
	}
	return &SimpleMA{
		period: period,
		window: make([]decimal.Decimal, period),
		div:    decimal.NewFromInt(int64(period)),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	for i := range m.window {
		m.window[i] = decimal.Zero
	}
	m.next = 0
	m.count = 0
	m.sum = decimal.Zero
}

func (m *SimpleMA) Update(b market.Bar) {
	if m.count == m.period {
		m.sum = m.sum.Sub(m.window[m.next])
	} else {
		m.count++
	}
	m.window[m.next] = b.Close
	m.sum = m.sum.Add(b.Close)
	m.next = (m.next + 1) % m.period
}

func (m *SimpleMA) Ready() bool {
	return m.count == m.period
}

func (m *SimpleMA) Value() decimal.Decimal {
	if !m.Ready() {
		return decimal.Zero
	}
	return m.sum.Div(m.div)
}

// ExponentialMA is a streaming exponential moving average seeded with the
// simple average of the first period closes.
type ExponentialMA struct {
	period     int
	multiplier decimal.Decimal
	ema        decimal.Decimal
	count      int
	warmupSum  decimal.Decimal
}

// NewEMA creates an exponential moving average over period bars. It panics if
// period is not positive.
func NewEMA(period int) *ExponentialMA {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: EMA period must be positive, got %d", period))
	}
	return &ExponentialMA{
		period:     period,
		multiplier: decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1))),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = decimal.Zero
	e.count = 0
	e.warmupSum = decimal.Zero
}

func (e *ExponentialMA) Update(b market.Bar) {
	e.count++
	if e.count <= e.period {
		e.warmupSum = e.warmupSum.Add(b.Close)
		if e.count == e.period {
			e.ema = e.warmupSum.Div(decimal.NewFromInt(int64(e.period)))
		}
		return
	}
	e.ema = b.Close.Sub(e.ema).Mul(e.multiplier).Add(e.ema)
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() decimal.Decimal {
	if !e.Ready() {
		return decimal.Zero
	}
	return e.ema
}

// SMASeries computes a simple moving average over a whole close series. The
// second result reports which slots are defined; the first period-1 slots
// are not.
func SMASeries(closes []float64, period int) ([]float64, []bool, error) {
	if period <= 0 {
		return nil, nil, fmt.Errorf("period must be positive, got %d", period)
	}

	out := make([]float64, len(closes))
	ok := make([]bool, len(closes))
	if len(closes) < period {
		return out, ok, nil
	}

	sma := ta.SMA(closes, period)
	for i := period - 1; i < len(closes) && i < len(sma); i++ {
		out[i] = sma[i]
		ok[i] = true
	}
	return out, ok, nil
}
