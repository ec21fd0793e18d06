// Package broker simulates a cash account that holds at most one long
// position in a single instrument.
package broker

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds means the sized quantity for an entry rounds to zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidOrder means the intent does not apply to the current position
	// or the fill price is unusable.
	ErrInvalidOrder = errors.New("invalid order")
)

// Config sets up the simulated account.
type Config struct {
	StartingCash   decimal.Decimal
	SizingFraction decimal.Decimal
	LotSize        decimal.Decimal // zero means whole units
}

func (c Config) Validate() error {
	if !c.StartingCash.IsPositive() {
		return fmt.Errorf("broker: starting cash must be positive, got %s", c.StartingCash)
	}
	if !c.SizingFraction.IsPositive() || c.SizingFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("broker: sizing fraction must be in (0, 1], got %s", c.SizingFraction)
	}
	if c.LotSize.IsNegative() {
		return fmt.Errorf("broker: lot size must not be negative, got %s", c.LotSize)
	}
	return nil
}

// Broker fills intents at the close of the bar they were emitted on. It is
// not safe for concurrent use; each run owns its own Broker.
type Broker struct {
	cfg Config
	lot decimal.Decimal

	cash     decimal.Decimal
	pos      Position
	realized decimal.Decimal
	trades   []TradeRecord
}

func New(cfg Config) (*Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lot := cfg.LotSize
	if lot.IsZero() {
		lot = decimal.NewFromInt(1)
	}
	return &Broker{
		cfg:  cfg,
		lot:  lot,
		cash: cfg.StartingCash,
	}, nil
}

// Submit executes intent against bar i. On error the account is unchanged.
func (b *Broker) Submit(in Intent, bar market.Bar, i int) (Fill, error) {
	switch in.Direction {
	case EnterLong:
		return b.enter(in, bar, i)
	case Exit:
		return b.exit(in.Reason, bar, i)
	default:
		return Fill{}, fmt.Errorf("%w: unknown direction %d", ErrInvalidOrder, in.Direction)
	}
}

// Size returns the quantity an entry at price would buy with the given
// fraction of cash: whole lots, rounded down, never costing more than
// cash*fraction.
func (b *Broker) Size(price, fraction decimal.Decimal) decimal.Decimal {
	if fraction.IsZero() {
		fraction = b.cfg.SizingFraction
	}
	budget := b.cash.Mul(fraction)
	lotCost := price.Mul(b.lot)

	lots := budget.Div(lotCost).Floor()
	// Div rounds to DivisionPrecision; step back if that pushed us over.
	for lots.IsPositive() && lots.Mul(lotCost).GreaterThan(budget) {
		lots = lots.Sub(decimal.NewFromInt(1))
	}
	return lots.Mul(b.lot)
}

func (b *Broker) enter(in Intent, bar market.Bar, i int) (Fill, error) {
	if !b.pos.Flat() {
		return Fill{}, fmt.Errorf("%w: enter-long while holding %s", ErrInvalidOrder, b.pos.Quantity)
	}
	f := in.Sizing.Fraction
	if f.IsNegative() || f.GreaterThan(decimal.NewFromInt(1)) {
		return Fill{}, fmt.Errorf("%w: sizing fraction %s outside (0, 1]", ErrInvalidOrder, f)
	}

	price := bar.Close
	if !price.IsPositive() {
		return Fill{}, fmt.Errorf("%w: enter-long at non-positive price %s", ErrInvalidOrder, price)
	}
	qty := b.Size(price, f)
	if !qty.IsPositive() {
		return Fill{}, fmt.Errorf("%w: cash %s buys no units at %s", ErrInsufficientFunds, b.cash, price)
	}

	cost := qty.Mul(price)
	b.cash = b.cash.Sub(cost)
	b.pos = Position{
		Quantity:   qty,
		EntryPrice: price,
		EntryTime:  bar.Time,
		EntryIndex: i,
	}

	return Fill{
		Index:     i,
		Time:      bar.Time,
		Direction: EnterLong,
		Price:     price,
		Quantity:  qty,
		Amount:    cost,
	}, nil
}

func (b *Broker) exit(reason string, bar market.Bar, i int) (Fill, error) {
	if b.pos.Flat() {
		return Fill{}, fmt.Errorf("%w: exit while flat", ErrInvalidOrder)
	}
	// A zero close is a valid (total loss) exit.

	price := bar.Close
	qty := b.pos.Quantity
	proceeds := qty.Mul(price)
	pnl := qty.Mul(price.Sub(b.pos.EntryPrice))

	b.cash = b.cash.Add(proceeds)
	b.realized = b.realized.Add(pnl)
	b.trades = append(b.trades, TradeRecord{
		Seq:        len(b.trades) + 1,
		EntryIndex: b.pos.EntryIndex,
		ExitIndex:  i,
		EntryTime:  b.pos.EntryTime,
		ExitTime:   bar.Time,
		EntryPrice: b.pos.EntryPrice,
		ExitPrice:  price,
		Quantity:   qty,
		PnL:        pnl,
		Reason:     reason,
	})
	b.pos = Position{}

	return Fill{
		Index:     i,
		Time:      bar.Time,
		Direction: Exit,
		Price:     price,
		Quantity:  qty,
		Amount:    proceeds,
	}, nil
}

// CloseOut exits any open position at bar's close. It is a no-op when flat.
func (b *Broker) CloseOut(bar market.Bar, i int, reason string) (Fill, bool, error) {
	if b.pos.Flat() {
		return Fill{}, false, nil
	}
	f, err := b.Submit(Intent{Direction: Exit, Reason: reason}, bar, i)
	if err != nil {
		return Fill{}, false, err
	}
	return f, true, nil
}

func (b *Broker) Cash() decimal.Decimal { return b.cash }
func (b *Broker) Position() Position    { return b.pos }

// Value marks the account to mark: cash plus quantity times mark.
func (b *Broker) Value(mark decimal.Decimal) decimal.Decimal {
	return b.cash.Add(b.pos.Quantity.Mul(mark))
}

func (b *Broker) Account() Account {
	return Account{Cash: b.cash, Position: b.pos, RealizedPnL: b.realized}
}

// Trades returns a copy of the completed trades.
func (b *Broker) Trades() []TradeRecord {
	return append([]TradeRecord(nil), b.trades...)
}
