package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/pkg/errors"
)

// AbsoluteResolver turns a RawSlot's verbatim substrings into canonical
// absolute time strings, given a temporal context bundle anchored on now
// (spec.md §4.2).
type AbsoluteResolver struct {
	llm ai.LLMService
}

// NewAbsoluteResolver builds an AbsoluteResolver backed by llm.
func NewAbsoluteResolver(llm ai.LLMService) *AbsoluteResolver {
	return &AbsoluteResolver{llm: llm}
}

const absoluteResolverSystemPromptTemplate = `You resolve relative and vague time expressions into absolute dates and times, using the temporal context below. Output STRICT JSON only, no markdown fences, no commentary.

%s
Canonical output format: "Month DD, YYYY HH:MM am|pm" (e.g. "November 19, 2025 10:00 am").

Schema:
{"start_text": string|null, "end_text": string|null, "duration": string|null}

Rules:
1. Resolve every non-null input field into the canonical format. Never leave a relative phrase unresolved.
2. "duration" is metadata only — copy it through unchanged, never compute it from start/end.
3. "tomorrow" means the calendar day after TODAY_HUMAN; if a time is given use it, else use 00:00.
4. "by X" (a weekday or date) means: if start_text is null, set it to NOW_ISO's canonical form; set end_text to X at 23:59.
5. A bare time of day with no day anchor resolves to today if that time is still in the future relative to NOW_ISO, else tomorrow.
6. A vague period resolves as: morning=09:00, afternoon=13:00, evening=18:00, tonight=20:00, noon=12:00, midnight=00:00.
7. "next week" resolves to NEXT_MONDAY at 09:00. "end of week"/"this week" resolves end_text to END_OF_WEEK. "end of month" resolves end_text to END_OF_MONTH.
8. A bare weekday name resolves to the corresponding NEXT_<WEEKDAY> anchor's date, preserving any time given.
9. If resolution would place end before start, repair end to 11:59 pm on start's date.
10. Never invent a field absent from the input — if a field was null in the input, keep it null in the output.

Input RawSlot fields to resolve:
`

type absoluteSlotJSON struct {
	StartText *string `json:"start_text"`
	EndText   *string `json:"end_text"`
	Duration  *string `json:"duration"`
}

// Resolve runs AbsoluteResolver against raw, given the context anchored at
// the query's current moment.
func (r *AbsoluteResolver) Resolve(ctx context.Context, raw RawSlot, tctx TemporalContext) (AbsoluteSlot, error) {
	systemPrompt := fmt.Sprintf(absoluteResolverSystemPromptTemplate, tctx.Prompt())
	userPrompt := rawSlotToPrompt(raw)

	response, err := r.llm.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: userPrompt},
	})
	if err != nil {
		return AbsoluteSlot{}, NewStageError(StageAR, KindParseLLM, "LLM call failed", err)
	}

	slot, err := parseAbsoluteSlotJSON(response)
	if err != nil {
		slog.Warn("AR: retrying after malformed JSON", "error", err)
		response, err = r.llm.Chat(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: userPrompt},
			{Role: ai.RoleUser, Content: "Your previous output was not valid JSON matching the schema. Output ONLY the JSON object, nothing else."},
		})
		if err != nil {
			return AbsoluteSlot{}, NewStageError(StageAR, KindParseLLM, "LLM retry call failed", err)
		}
		slot, err = parseAbsoluteSlotJSON(response)
		if err != nil {
			return AbsoluteSlot{}, NewStageError(StageAR, KindParseLLM, "LLM output was not valid JSON after retry", err)
		}
	}
	return slot, nil
}

func rawSlotToPrompt(raw RawSlot) string {
	payload := rawSlotJSON{StartText: raw.StartText, EndText: raw.EndText, Duration: raw.Duration}
	b, _ := json.Marshal(payload)
	return string(b)
}

func parseAbsoluteSlotJSON(response string) (AbsoluteSlot, error) {
	jsonStr := stripCodeFence(response)
	var raw absoluteSlotJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return AbsoluteSlot{}, errors.Wrap(err, "unmarshal absolute resolver response")
	}
	return AbsoluteSlot{StartText: raw.StartText, EndText: raw.EndText, Duration: raw.Duration}, nil
}
