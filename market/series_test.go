package market

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func row(n int, c float64) RawRow {
	return RawRow{Time: day(n), Open: c, High: c, Low: c, Close: c, Volume: 100}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		rows    []RawRow
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid rows",
			rows: []RawRow{row(0, 10), row(1, 11), row(2, 12)},
		},
		{
			name:    "empty",
			rows:    nil,
			wantErr: true,
			errMsg:  "no rows",
		},
		{
			name:    "duplicate timestamp",
			rows:    []RawRow{row(0, 10), row(0, 11)},
			wantErr: true,
			errMsg:  "row 1",
		},
		{
			name:    "out of order",
			rows:    []RawRow{row(1, 10), row(0, 11)},
			wantErr: true,
			errMsg:  "not after",
		},
		{
			name:    "zero time",
			rows:    []RawRow{{Close: 10}},
			wantErr: true,
			errMsg:  "missing timestamp",
		},
		{
			name:    "nan close",
			rows:    []RawRow{row(0, 10), {Time: day(1), Close: math.NaN()}},
			wantErr: true,
			errMsg:  "close is not finite",
		},
		{
			name:    "infinite high",
			rows:    []RawRow{{Time: day(0), High: math.Inf(1)}},
			wantErr: true,
			errMsg:  "high is not finite",
		},
		{
			name:    "negative volume",
			rows:    []RawRow{{Time: day(0), Close: 1, Volume: -5}},
			wantErr: true,
			errMsg:  "volume is negative",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Load("BTC-USD", tt.rows)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidData)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rows), s.Len())
		})
	}
}

func TestSeriesAccess(t *testing.T) {
	s, err := Load("ETH-USD", []RawRow{row(0, 10), row(1, 10.5), row(2, 11.25)})
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", s.Symbol())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.At(1).Close.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, day(2), s.At(2).Time)

	assert.Panics(t, func() { s.At(3) })

	t.Run("iterator visits every bar in order", func(t *testing.T) {
		it := s.Iterator()
		var idx []int
		for it.Next() {
			idx = append(idx, it.Index())
			assert.Equal(t, s.At(it.Index()), it.Bar())
		}
		assert.Equal(t, []int{0, 1, 2}, idx)
		assert.False(t, it.Next())
	})
}
