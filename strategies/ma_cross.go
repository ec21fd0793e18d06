package strategies

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/indicators"
)

// Indicator names registered by MACross.
const (
	FastMA = "fast"
	SlowMA = "slow"
	Cross  = "cross"
)

// MACross goes long when the fast average crosses above the slow one and
// exits when it crosses back below. It never shorts.
type MACross struct {
	kind       string
	fast, slow int
	newMA      func(int) indicators.Indicator
}

// NewSMACross is the reference simple moving-average crossover. Equal
// periods are allowed and never trade.
func NewSMACross(fast, slow int) (*MACross, error) {
	return newMACross("sma-cross", fast, slow, func(p int) indicators.Indicator { return indicators.NewSMA(p) })
}

func NewEMACross(fast, slow int) (*MACross, error) {
	return newMACross("ema-cross", fast, slow, func(p int) indicators.Indicator { return indicators.NewEMA(p) })
}

func newMACross(kind string, fast, slow int, newMA func(int) indicators.Indicator) (*MACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("%s: periods must be positive, got fast=%d slow=%d", kind, fast, slow)
	}
	return &MACross{kind: kind, fast: fast, slow: slow, newMA: newMA}, nil
}

func (s *MACross) Name() string {
	return fmt.Sprintf("%s(%d,%d)", s.kind, s.fast, s.slow)
}

func (s *MACross) Setup(e *indicators.Engine) error {
	fast, slow := s.newMA(s.fast), s.newMA(s.slow)
	if err := e.Add(FastMA, fast); err != nil {
		return err
	}
	if err := e.Add(SlowMA, slow); err != nil {
		return err
	}
	return e.Add(Cross, indicators.NewCrossover(fast, slow))
}

func (s *MACross) Decide(pos broker.Position, snap indicators.Snapshot) *broker.Intent {
	switch sig := snap.Signal(Cross); {
	case pos.Flat() && sig > 0:
		return &broker.Intent{Direction: broker.EnterLong, Reason: "fast crossed above slow"}
	case !pos.Flat() && sig < 0:
		return &broker.Intent{Direction: broker.Exit, Reason: "fast crossed below slow"}
	}
	return nil
}
