package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	loc, err := Parse("")
	require.NoError(t, err)
	require.Equal(t, UTC, loc)

	loc, err = Parse("America/New_York")
	require.NoError(t, err)
	require.Equal(t, "America/New_York", loc.String())

	_, err = Parse("Not/AZone")
	require.Error(t, err)
}

func TestStartEndOfDay(t *testing.T) {
	loc := MustParse("UTC")
	base := time.Date(2026, 8, 6, 14, 32, 0, 0, loc)

	require.Equal(t, time.Date(2026, 8, 6, 0, 0, 0, 0, loc), StartOfDay(base, loc))
	require.Equal(t, time.Date(2026, 8, 6, 23, 59, 59, 0, loc), EndOfDay(base, loc))
}

func TestNextMonday(t *testing.T) {
	loc := MustParse("UTC")
	// 2026-08-06 is a Thursday.
	thursday := time.Date(2026, 8, 6, 10, 0, 0, 0, loc)
	got := NextMonday(thursday, loc)
	require.Equal(t, time.Date(2026, 8, 10, 9, 0, 0, 0, loc), got)

	monday := time.Date(2026, 8, 10, 9, 0, 0, 0, loc)
	got = NextMonday(monday, loc)
	require.Equal(t, time.Date(2026, 8, 17, 9, 0, 0, 0, loc), got)
}

func TestNextOccurrence(t *testing.T) {
	loc := MustParse("UTC")
	thursday := time.Date(2026, 8, 6, 10, 0, 0, 0, loc)

	got := NextOccurrence(thursday, loc, time.Thursday)
	require.Equal(t, time.Date(2026, 8, 13, 0, 0, 0, 0, loc), got)

	got = NextOccurrence(thursday, loc, time.Friday)
	require.Equal(t, time.Date(2026, 8, 7, 0, 0, 0, 0, loc), got)
}

func TestEndOfWeek(t *testing.T) {
	loc := MustParse("UTC")
	thursday := time.Date(2026, 8, 6, 10, 0, 0, 0, loc)
	got := EndOfWeek(thursday, loc)
	require.Equal(t, time.Date(2026, 8, 9, 23, 59, 59, 0, loc), got)
}

func TestEndOfMonth(t *testing.T) {
	loc := MustParse("UTC")
	mid := time.Date(2026, 2, 10, 10, 0, 0, 0, loc)
	got := EndOfMonth(mid, loc)
	require.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, loc), got)
}
