package indicators

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/shopspring/decimal"
)

// Engine advances a set of named indicators one bar at a time. Indicators
// update in the order they were added, so inputs must be added before the
// indicators that read them.
type Engine struct {
	names []string
	byKey map[string]Indicator

	index int
	time  time.Time
}

func NewEngine() *Engine {
	return &Engine{
		byKey: make(map[string]Indicator),
		index: -1,
	}
}

// Add registers ind under name.
func (e *Engine) Add(name string, ind Indicator) error {
	if name == "" {
		return fmt.Errorf("indicators: empty name for %s", ind.Name())
	}
	if _, exists := e.byKey[name]; exists {
		return fmt.Errorf("indicators: %q already registered", name)
	}
	e.names = append(e.names, name)
	e.byKey[name] = ind
	return nil
}

// Update feeds b to every indicator.
func (e *Engine) Update(b market.Bar) {
	for _, n := range e.names {
		e.byKey[n].Update(b)
	}
	e.index++
	e.time = b.Time
}

// Warmup is the longest lookback among the registered indicators.
func (e *Engine) Warmup() int {
	w := 0
	for _, ind := range e.byKey {
		w = max(w, ind.Warmup())
	}
	return w
}

func (e *Engine) Reset() {
	for _, ind := range e.byKey {
		ind.Reset()
	}
	e.index = -1
	e.time = time.Time{}
}

func (e *Engine) Names() []string {
	return append([]string(nil), e.names...)
}

// Snapshot captures the readings after the latest Update.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Index:    e.index,
		Time:     e.time,
		readings: make(map[string]reading, len(e.names)),
	}
	for _, n := range e.names {
		ind := e.byKey[n]
		r := reading{ready: ind.Ready()}
		if r.ready {
			r.value = ind.Value()
		}
		if c, ok := ind.(*Crossover); ok {
			r.signal = c.Signal()
		}
		s.readings[n] = r
	}
	return s
}

type reading struct {
	value  decimal.Decimal
	signal int
	ready  bool
}

// Snapshot is an immutable view of indicator readings at one bar.
type Snapshot struct {
	Index int
	Time  time.Time

	readings map[string]reading
}

// Value returns the reading for name, or false if it is unknown or still
// warming up.
func (s Snapshot) Value(name string) (decimal.Decimal, bool) {
	r, ok := s.readings[name]
	if !ok || !r.ready {
		return decimal.Zero, false
	}
	return r.value, true
}

// Signal returns the crossover signal for name; 0 when absent.
func (s Snapshot) Signal(name string) int {
	return s.readings[name].signal
}
