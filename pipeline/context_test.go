package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildTemporalContext(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 8, 6, 10, 0, 0, 0, loc) // a Thursday

	ctx := BuildTemporalContext(now, loc)
	require.Equal(t, "UTC", ctx.TZ)
	require.Equal(t, int(time.Thursday), ctx.TodayDOWIndex)
	require.Contains(t, ctx.NextMonday, "August 10, 2026")
	require.Contains(t, ctx.EndOfWeek, "August 9, 2026")
	require.Contains(t, ctx.Prompt(), "NOW_ISO:")
	require.Contains(t, ctx.Prompt(), "NEXT_FRIDAY:")
}
