package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, table := range []string{"runs", "trades", "equity", "rejections"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()
	res := sampleResult()
	require.NoError(t, j.RecordRun(ctx, NewRun("R1", day(10), res), res))
	require.NoError(t, j.Close())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	run, err := j2.GetRun(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", run.Symbol)
}

func TestSQLiteRecordRun(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()

	res := sampleResult()
	run := NewRun("R1", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), res)
	run.Config = []byte("symbol: BTC-USD\n")
	require.NoError(t, j.RecordRun(ctx, run, res))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		quantity   string
		entryPrice string
		realized   string
		reason     string
	)
	err = db.QueryRow(`SELECT quantity, entry_price, realized_pl, reason FROM trades WHERE run_id = ? AND seq = 1`, "R1").
		Scan(&quantity, &entryPrice, &realized, &reason)
	require.NoError(t, err)
	assert.Equal(t, "90", quantity)
	assert.Equal(t, "11", entryPrice)
	assert.Equal(t, "180", realized)
	assert.Equal(t, "cross down", reason)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM equity WHERE run_id = ?`, "R1").Scan(&n))
	assert.Equal(t, 4, n)

	var direction string
	require.NoError(t, db.QueryRow(`SELECT direction FROM rejections WHERE run_id = ?`, "R1").Scan(&direction))
	assert.Equal(t, "enter-long", direction)
}

func TestSQLiteDuplicateRunRollsBack(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()
	res := sampleResult()

	require.NoError(t, j.RecordRun(ctx, NewRun("R1", day(10), res), res))
	assert.Error(t, j.RecordRun(ctx, NewRun("R1", day(11), res), res))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&n))
	assert.Equal(t, 1, n)
}
