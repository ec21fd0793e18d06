package strategies

import (
	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/indicators"
)

// Noop never trades. It is the buy-nothing baseline.
type Noop struct{}

func (Noop) Name() string                                               { return "noop" }
func (Noop) Setup(*indicators.Engine) error                             { return nil }
func (Noop) Decide(broker.Position, indicators.Snapshot) *broker.Intent { return nil }
