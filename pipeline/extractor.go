package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/pkg/errors"
)

// SlotExtractor lifts verbatim temporal substrings out of a query without
// resolving any relative expression (spec.md §4.1). It never invents
// content; a response with all three fields null is returned as a
// PARSE_LLM StageError.
type SlotExtractor struct {
	llm ai.LLMService
}

// NewSlotExtractor builds a SlotExtractor backed by llm.
func NewSlotExtractor(llm ai.LLMService) *SlotExtractor {
	return &SlotExtractor{llm: llm}
}

const slotExtractorSystemPrompt = `You extract temporal expressions from a scheduling request. Output STRICT JSON only, no markdown fences, no commentary.

Schema:
{"start_text": string|null, "end_text": string|null, "duration": string|null}

Rules:
1. Copy verbatim substrings from the input for any of start/end/duration you can identify. Do NOT resolve relative expressions ("tomorrow", "next week") — copy them as written.
2. "start_text" is when the task should begin, if stated.
3. "end_text" is when the task must be done by (a deadline), if stated.
4. "duration" is how long the task takes, if stated (e.g. "30 minutes", "2 hours").
5. If a field is not present in the input, use null. Never invent a value.
6. Output exactly one JSON object and nothing else.

Examples:
Input: "Call mom tomorrow at 2pm for 30 minutes"
Output: {"start_text": "tomorrow at 2pm", "end_text": null, "duration": "30 minutes"}

Input: "Plan a 5-day Japan trip by Nov 25"
Output: {"start_text": null, "end_text": "Nov 25", "duration": null}

Input: "Finish the report in 2 hours"
Output: {"start_text": null, "end_text": null, "duration": "2 hours"}

Input: "Meeting from 3pm to 4:30pm on Friday"
Output: {"start_text": "3pm on Friday", "end_text": "4:30pm on Friday", "duration": null}

Input: "Call mom"
Output: {"start_text": null, "end_text": null, "duration": null}`

type rawSlotJSON struct {
	StartText *string `json:"start_text"`
	EndText   *string `json:"end_text"`
	Duration  *string `json:"duration"`
}

// Extract runs SlotExtractor against q.Text.
func (s *SlotExtractor) Extract(ctx context.Context, q Query) (RawSlot, error) {
	response, err := s.llm.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: slotExtractorSystemPrompt},
		{Role: ai.RoleUser, Content: q.Text},
	})
	if err != nil {
		return RawSlot{}, NewStageError(StageSE, KindParseLLM, "LLM call failed", err)
	}

	slot, err := parseRawSlotJSON(response)
	if err != nil {
		slog.Warn("SE: retrying after malformed JSON", "error", err)
		response, err = s.llm.Chat(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: slotExtractorSystemPrompt},
			{Role: ai.RoleUser, Content: q.Text},
			{Role: ai.RoleUser, Content: "Your previous output was not valid JSON matching the schema. Output ONLY the JSON object, nothing else."},
		})
		if err != nil {
			return RawSlot{}, NewStageError(StageSE, KindParseLLM, "LLM retry call failed", err)
		}
		slot, err = parseRawSlotJSON(response)
		if err != nil {
			return RawSlot{}, NewStageError(StageSE, KindParseLLM, "LLM output was not valid JSON after retry", err)
		}
	}

	if slot.Empty() {
		return RawSlot{}, NewStageError(StageSE, KindParseLLM, "all three fields null: no temporal information extracted", nil)
	}
	return slot, nil
}

func parseRawSlotJSON(response string) (RawSlot, error) {
	jsonStr := stripCodeFence(response)
	var raw rawSlotJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return RawSlot{}, errors.Wrap(err, "unmarshal slot extractor response")
	}
	return RawSlot{StartText: raw.StartText, EndText: raw.EndText, Duration: raw.Duration}, nil
}

// stripCodeFence removes a leading/trailing ```json or ``` fence, which
// many chat models wrap JSON output in despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
