package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/stretchr/testify/require"
)

func TestResolveSuccess(t *testing.T) {
	mock := &ai.MockService{Responses: []string{`{"start_text": "November 19, 2025 2:00 pm", "end_text": null, "duration": "30 minutes"}`}}
	ar := NewAbsoluteResolver(mock)

	loc := time.UTC
	now := time.Date(2025, 11, 18, 0, 0, 0, 0, loc)
	tctx := BuildTemporalContext(now, loc)

	startText := "tomorrow at 2pm"
	duration := "30 minutes"
	raw := RawSlot{StartText: &startText, Duration: &duration}

	slot, err := ar.Resolve(context.Background(), raw, tctx)
	require.NoError(t, err)
	require.NotNil(t, slot.StartText)
	require.Equal(t, "November 19, 2025 2:00 pm", *slot.StartText)
}

func TestResolveRetriesOnMalformedJSON(t *testing.T) {
	mock := &ai.MockService{Responses: []string{
		"garbage",
		`{"start_text": null, "end_text": "November 25, 2025 11:59 pm", "duration": null}`,
	}}
	ar := NewAbsoluteResolver(mock)
	tctx := BuildTemporalContext(time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC), time.UTC)

	endText := "Nov 25"
	slot, err := ar.Resolve(context.Background(), RawSlot{EndText: &endText}, tctx)
	require.NoError(t, err)
	require.NotNil(t, slot.EndText)
	require.Len(t, mock.Calls, 2)
}
