package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/cryptobot/config"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := Open(config.JournalConfig{})
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = Open(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "j.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, j)
	assert.NoError(t, j.Close())

	j, err = Open(config.JournalConfig{
		Type:       "csv",
		TradesFile: filepath.Join(dir, "trades.csv"),
		EquityFile: filepath.Join(dir, "equity.csv"),
	})
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	assert.NoError(t, j.Close())

	_, err = Open(config.JournalConfig{Type: "postgres"})
	assert.Error(t, err)
}
