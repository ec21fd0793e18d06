package journal

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, tradeHeader, trades[0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 1)
	assert.Equal(t, equityHeader, equity[0])
}

func TestCSVJournalRecordRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	res := sampleResult()
	require.NoError(t, j.RecordRun(context.Background(), NewRun("R1", day(10), res), res))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, []string{
		"R1",
		"1",
		"BTC-USD",
		"90",
		"11",
		"13",
		"2020-01-02T00:00:00Z",
		"2020-01-04T00:00:00Z",
		"180",
		"cross down",
	}, trades[1])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 5)
	assert.Equal(t, []string{"R1", "2", "2020-01-03T00:00:00Z", "12", "10", "90", "1090"}, equity[3])
}

func TestWriteEquityCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, "", sampleResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, equityHeader, rows[0])
	assert.Equal(t, []string{"", "2", "2020-01-03T00:00:00Z", "12", "10", "90", "1090"}, rows[3])
}
