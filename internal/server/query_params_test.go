package server

import (
	"testing"
	"time"

	"github.com/milkroute/milkroute/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateOrNowDefaultsToToday(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	for _, raw := range []string{"", "   "} {
		got, err := parseDateOrNow(raw, "date", fake)
		require.NoError(t, err)
		assert.Equal(t, fake.Now(), got)
	}
}

func TestParseDateOrNowParsesExplicitDate(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	got, err := parseDateOrNow("2026-04-01", "date", fake)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateOrNowRejectsBadFormat(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	_, err := parseDateOrNow("04/01/2026", "date", fake)
	assert.True(t, isValidationError(err))
}
