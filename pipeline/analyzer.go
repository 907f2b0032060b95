package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/pkg/errors"
)

// CalendarOption is one writable-or-not calendar entry from the backend
// catalog, the input TD chooses among.
type CalendarOption struct {
	ID       string
	Title    string
	Writable bool
}

// DefaultAtomicDuration is the duration TD assigns to an atomic task that
// carries no TS.duration (spec.md §9, adopted per the Open Questions
// resolution).
const DefaultAtomicDuration = 30 * time.Minute

// DifficultyAnalyzer classifies a query into a calendar, a task type
// (simple/complex) and a short title (spec.md §4.4).
type DifficultyAnalyzer struct {
	llm ai.LLMService
}

// NewDifficultyAnalyzer builds a DifficultyAnalyzer backed by llm.
func NewDifficultyAnalyzer(llm ai.LLMService) *DifficultyAnalyzer {
	return &DifficultyAnalyzer{llm: llm}
}

const analyzerSystemPromptTemplate = `You classify a scheduling request. Output STRICT JSON only, no markdown fences, no commentary.

Schema:
{"calendar_title": string, "type": "simple"|"complex", "title": string, "is_atomic": boolean}

Rules:
1. type="complex" if the task has multiple steps, is a project, requires coordination, or is open-ended/broad in scope (e.g. "plan a trip", "launch the website", "organize the move"). type="simple" otherwise (e.g. "call mom", "send the invoice", "book a dentist appointment").
2. is_atomic is true only when type="simple" represents one indivisible action with no natural subtasks.
3. calendar_title must be chosen from the available calendars below, matched by professional vs. personal vocabulary: work/professional vocabulary (client, manager, team, meeting, deck, proposal, report, sprint, deploy, invoice, contract, roadmap) selects the calendar titled "Work"; personal vocabulary (family, friend, groceries, gym, doctor, birthday, rent, travel, taxes) selects "Home". Prefer "Work" when ambiguous and the task concerns a professional deliverable.
4. title is a short imperative phrase, 3-7 words, verb + object, with no time/date words in it.

Available calendars:
%s

Original query: %s
Duration already known (may be null — do not guess if null): %s`

type analyzerResponseJSON struct {
	CalendarTitle string `json:"calendar_title"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	IsAtomic      bool   `json:"is_atomic"`
}

// Classify runs DifficultyAnalyzer against query, using duration (possibly
// nil) already established by TS, against the backend's calendar catalog.
func (a *DifficultyAnalyzer) Classify(ctx context.Context, query Query, duration *time.Duration, calendars []CalendarOption) (ClassifiedTask, error) {
	systemPrompt := fmt.Sprintf(analyzerSystemPromptTemplate, formatCalendars(calendars), query.Text, formatDurationOrNull(duration))

	response, err := a.llm.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: query.Text},
	})
	if err != nil {
		return ClassifiedTask{}, NewStageError(StageTD, KindParseLLM, "LLM call failed", err)
	}

	parsed, err := parseAnalyzerResponse(response)
	if err != nil {
		slog.Warn("TD: retrying after malformed JSON", "error", err)
		response, err = a.llm.Chat(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: query.Text},
			{Role: ai.RoleUser, Content: "Your previous output was not valid JSON matching the schema. Output ONLY the JSON object, nothing else."},
		})
		if err != nil {
			return ClassifiedTask{}, NewStageError(StageTD, KindParseLLM, "LLM retry call failed", err)
		}
		parsed, err = parseAnalyzerResponse(response)
		if err != nil {
			return ClassifiedTask{}, NewStageError(StageTD, KindParseLLM, "LLM output was not valid JSON after retry", err)
		}
	}

	calendarID, err := resolveCalendar(parsed.CalendarTitle, calendars)
	if err != nil {
		return ClassifiedTask{}, NewStageError(StageTD, KindTDNoCalendar, err.Error(), nil)
	}

	task := ClassifiedTask{
		CalendarID: calendarID,
		Title:      parsed.Title,
	}

	switch {
	case duration != nil:
		task.Type = TaskSimple
		task.Duration = duration
	case parsed.IsAtomic:
		task.Type = TaskSimple
		d := DefaultAtomicDuration
		task.Duration = &d
	default:
		task.Type = TaskComplex
		task.Duration = nil
	}

	return task, nil
}

func parseAnalyzerResponse(response string) (analyzerResponseJSON, error) {
	jsonStr := stripCodeFence(response)
	var parsed analyzerResponseJSON
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return analyzerResponseJSON{}, errors.Wrap(err, "unmarshal difficulty analyzer response")
	}
	return parsed, nil
}

// resolveCalendar matches the LLM's chosen calendar title against the
// writable catalog: a case-insensitive exact match first, then a
// case-insensitive substring match, matching the teacher's two-pass find-then-fallback
// pattern.
func resolveCalendar(title string, calendars []CalendarOption) (string, error) {
	for _, c := range calendars {
		if c.Writable && strings.EqualFold(c.Title, title) {
			return c.ID, nil
		}
	}
	for _, c := range calendars {
		if c.Writable && strings.Contains(strings.ToLower(c.Title), strings.ToLower(title)) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no writable calendar matches %q", title)
}

func formatCalendars(calendars []CalendarOption) string {
	var b strings.Builder
	for _, c := range calendars {
		fmt.Fprintf(&b, "- %s (writable=%t)\n", c.Title, c.Writable)
	}
	return b.String()
}

func formatDurationOrNull(d *time.Duration) string {
	if d == nil {
		return "null"
	}
	return FormatISO8601(*d)
}
