package broker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is what a strategy asks the broker to do on a bar.
type Direction int8

const (
	EnterLong Direction = iota + 1
	Exit
)

func (d Direction) String() string {
	switch d {
	case EnterLong:
		return "enter-long"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "enter-long":
		*d = EnterLong
	case "exit":
		*d = Exit
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// Sizing overrides the account's sizing fraction for one order. A zero
// Fraction means the configured default.
type Sizing struct {
	Fraction decimal.Decimal
}

// Intent is a strategy's request for the current bar. It is not retained.
type Intent struct {
	Direction Direction
	Sizing    Sizing
	Reason    string
}

// Position is the single open long holding. Quantity is zero when flat.
type Position struct {
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
	EntryIndex int
}

func (p Position) Flat() bool { return p.Quantity.IsZero() }

// Fill records an executed order.
type Fill struct {
	Index     int
	Time      time.Time
	Direction Direction
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Amount    decimal.Decimal // cash paid on entry, received on exit
}

// TradeRecord is one completed round trip. Seq starts at 1 per run.
type TradeRecord struct {
	Seq        int
	EntryIndex int
	ExitIndex  int
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Quantity   decimal.Decimal
	PnL        decimal.Decimal
	Reason     string
}

// Account is a point-in-time copy of the broker's books.
type Account struct {
	Cash        decimal.Decimal
	Position    Position
	RealizedPnL decimal.Decimal
}
