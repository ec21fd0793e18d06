package httpapi

import (
	"time"

	"github.com/rustyeddy/cryptobot/indicators"
)

// Chart is the close series of a run with its fast and slow simple moving
// averages, one slot per bar. Warm-up slots are null.
type Chart struct {
	FastPeriod int         `json:"fast_period"`
	SlowPeriod int         `json:"slow_period"`
	Time       []time.Time `json:"time"`
	Close      []float64   `json:"close"`
	FastSMA    []*float64  `json:"fast_sma"`
	SlowSMA    []*float64  `json:"slow_sma"`
}

func newChart(times []time.Time, closes []float64, fast, slow int) (*Chart, error) {
	fv, fok, err := indicators.SMASeries(closes, fast)
	if err != nil {
		return nil, err
	}
	sv, sok, err := indicators.SMASeries(closes, slow)
	if err != nil {
		return nil, err
	}
	return &Chart{
		FastPeriod: fast,
		SlowPeriod: slow,
		Time:       times,
		Close:      closes,
		FastSMA:    defined(fv, fok),
		SlowSMA:    defined(sv, sok),
	}, nil
}

func defined(vals []float64, ok []bool) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		if ok[i] {
			v := vals[i]
			out[i] = &v
		}
	}
	return out
}
