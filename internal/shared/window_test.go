package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), w.From)

	// The end bound covers the entire last day.
	require.True(t, w.Contains(time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)))
}

func TestParseWindowRejectsBadInput(t *testing.T) {
	for _, tc := range [][2]string{
		{"", "2026-03-31"},
		{"2026-03-01", ""},
		{"01-03-2026", "2026-03-31"},
		{"2026-03-31", "2026-03-01"},
	} {
		_, err := ParseWindow(tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidWindow, "from=%q to=%q", tc[0], tc[1])
	}
}

func TestMonthWindow(t *testing.T) {
	w := MonthWindow(time.Date(2026, time.February, 14, 9, 30, 0, 0, time.UTC))
	require.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), w.From)
	require.True(t, w.Contains(time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2026-02-01:2026-02-28", w.Key())
}
