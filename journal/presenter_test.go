package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/pkg/id"
)

type memJournal struct {
	runs []Run
	err  error
}

func (m *memJournal) RecordRun(_ context.Context, run Run, _ *backtest.Result) error {
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *memJournal) Close() error { return nil }

func TestPresenterRecordsRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mem := &memJournal{}
	p := &Presenter{J: mem, Config: []byte("symbol: BTC-USD\n"), Now: func() time.Time { return now }}

	require.NoError(t, p.Present(context.Background(), sampleResult()))
	require.Len(t, mem.runs, 1)

	run := mem.runs[0]
	assert.Equal(t, p.LastRunID, run.RunID)
	assert.Equal(t, now, run.Created)
	assert.Equal(t, []byte("symbol: BTC-USD\n"), run.Config)

	stamped, err := id.Time(run.RunID)
	require.NoError(t, err)
	assert.True(t, stamped.Equal(now))
}

func TestPresenterError(t *testing.T) {
	t.Parallel()

	boom := errors.New("locked")
	p := &Presenter{J: &memJournal{err: boom}}

	err := p.Present(context.Background(), sampleResult())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.LastRunID)
}

func TestPresenterWithSQLite(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	p := &Presenter{J: j}
	require.NoError(t, p.Present(context.Background(), sampleResult()))

	run, err := j.GetRun(context.Background(), p.LastRunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Trades)
}
