// Package strategies holds the decision functions the backtest loop calls
// once per bar.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/cryptobot/broker"
	"github.com/rustyeddy/cryptobot/indicators"
)

// Strategy turns the current position and indicator readings into at most
// one intent per bar. Decide must depend only on its arguments.
type Strategy interface {
	Name() string

	// Setup registers the indicators the strategy reads.
	Setup(e *indicators.Engine) error

	// Decide returns nil when there is nothing to do.
	Decide(pos broker.Position, snap indicators.Snapshot) *broker.Intent
}

// Supported lists the names accepted by ByName.
var Supported = []string{"sma-cross", "ema-cross", "noop"}

// ByName builds a strategy from its name and moving-average periods.
func ByName(name string, fast, slow int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "sma-cross", "smacross", "sma":
		return NewSMACross(fast, slow)

	case "ema-cross", "emacross", "ema":
		return NewEMACross(fast, slow)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Supported, ", "))
	}
}
