package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtIsMonotonic(t *testing.T) {
	t.Parallel()

	at := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := At(at)
	for i := 0; i < 100; i++ {
		next := At(at)
		assert.Len(t, next, 26)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestAtRoundTripsTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2020, 1, 1, 12, 30, 0, 0, time.UTC)
	runID := At(at)

	got, err := Time(runID)
	require.NoError(t, err)
	assert.True(t, got.Equal(at), "got %s", got)
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
