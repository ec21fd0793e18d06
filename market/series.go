package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidData is returned by Load when the raw rows cannot form a Series.
var ErrInvalidData = errors.New("invalid bar data")

// Series is an ordered, validated run of bars for one symbol. It is read-only
// once loaded.
type Series struct {
	symbol string
	bars   []Bar
}

// Load validates rows and builds a Series. Rows must be non-empty, strictly
// increasing in time, and carry finite non-negative prices and volume.
func Load(symbol string, rows []RawRow) (*Series, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidData)
	}

	bars := make([]Bar, 0, len(rows))
	for i, r := range rows {
		if r.Time.IsZero() {
			return nil, fmt.Errorf("%w: row %d: missing timestamp", ErrInvalidData, i)
		}
		if i > 0 && !r.Time.After(rows[i-1].Time) {
			return nil, fmt.Errorf("%w: row %d: timestamp %s not after %s",
				ErrInvalidData, i, r.Time.UTC().Format("2006-01-02T15:04:05Z"),
				rows[i-1].Time.UTC().Format("2006-01-02T15:04:05Z"))
		}
		if err := checkValues(r); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidData, i, err)
		}
		bars = append(bars, r.bar())
	}

	return &Series{symbol: symbol, bars: bars}, nil
}

func checkValues(r RawRow) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"open", r.Open},
		{"high", r.High},
		{"low", r.Low},
		{"close", r.Close},
		{"volume", r.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s is not finite", f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%s is negative (%g)", f.name, f.v)
		}
	}
	return nil
}

// Symbol returns the instrument the bars belong to.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// At returns bar i by value. It panics when i is out of range.
func (s *Series) At(i int) Bar { return s.bars[i] }

// Iterator walks a Series from the first bar to the last.
func (s *Series) Iterator() *Iterator {
	return &Iterator{s: s, idx: -1}
}

// Iterator is a forward cursor over a Series. Call Next before reading.
type Iterator struct {
	s   *Series
	idx int
}

// Next advances to the next bar and reports whether one exists.
func (it *Iterator) Next() bool {
	if it.idx+1 >= len(it.s.bars) {
		return false
	}
	it.idx++
	return true
}

// Index returns the position of the current bar.
func (it *Iterator) Index() int { return it.idx }

// Bar returns the current bar by value.
func (it *Iterator) Bar() Bar { return it.s.bars[it.idx] }
