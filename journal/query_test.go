package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	res := sampleResult()
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	want := NewRun("R1", created, res)
	want.Config = []byte("symbol: BTC-USD\n")
	require.NoError(t, j.RecordRun(ctx, want, res))

	got, err := j.GetRun(ctx, "R1")
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, got.Created.Equal(created))
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.Config, got.Config)
	assert.True(t, got.Start.Equal(want.Start))
	assert.True(t, got.End.Equal(want.End))
	assert.Equal(t, want.Bars, got.Bars)
	assert.Equal(t, want.Trades, got.Trades)
	assert.Equal(t, want.Rejections, got.Rejections)
	assert.True(t, got.StartCash.Equal(want.StartCash))
	assert.True(t, got.FinalValue.Equal(want.FinalValue))
	assert.True(t, got.NetPL.Equal(want.NetPL))
	assert.InDelta(t, want.ReturnPct, got.ReturnPct, 1e-9)
	assert.InDelta(t, want.WinRate, got.WinRate, 1e-9)
	assert.Equal(t, want.OpenPosition, got.OpenPosition)
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetRun(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `run "nonexistent" not found`, err.Error())
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	res := sampleResult()
	for i, runID := range []string{"A", "B", "C"} {
		require.NoError(t, j.RecordRun(ctx, NewRun(runID, day(10+i), res), res))
	}

	all, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].RunID)
	assert.Equal(t, "A", all[2].RunID)

	limited, err := j.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "B", limited[1].RunID)
}

func TestListTradesAndEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	res := sampleResult()
	require.NoError(t, j.RecordRun(ctx, NewRun("R1", day(10), res), res))

	trades, err := j.ListTrades(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, 1, tr.Seq)
	assert.Equal(t, "BTC-USD", tr.Symbol)
	assert.True(t, tr.Quantity.Equal(d("90")))
	assert.True(t, tr.EntryPrice.Equal(d("11")))
	assert.True(t, tr.ExitPrice.Equal(d("13")))
	assert.True(t, tr.RealizedPL.Equal(d("180")))
	assert.True(t, tr.OpenTime.Equal(day(1)))
	assert.True(t, tr.CloseTime.Equal(day(3)))

	eq, err := j.ListEquity(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, eq, 4)
	for i, e := range eq {
		assert.Equal(t, i, e.Index)
		assert.True(t, e.Time.Equal(day(i)))
		assert.True(t, e.Cash.Add(e.Quantity.Mul(e.Close)).Equal(e.Value), "bar %d", i)
	}

	none, err := j.ListTrades(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	res := sampleResult()
	require.NoError(t, j.RecordRun(ctx, NewRun("R1", day(10), res), res))

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"covers close", day(3), day(4), 1},
		{"end is exclusive", day(0), day(3), 0},
		{"after", day(4), day(5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.ListTradesClosedBetween(ctx, tt.start, tt.end)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
