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

// MaxSubtaskDuration bounds every decomposed subtask (spec.md §4.5).
const MaxSubtaskDuration = 3 * time.Hour

const (
	minSubtasks = 2
	maxSubtasks = 5
)

// Decomposer breaks a complex ClassifiedTask into 2-5 ordered subtasks,
// each bounded to MaxSubtaskDuration (spec.md §4.5).
type Decomposer struct {
	llm ai.LLMService
}

// NewDecomposer builds a Decomposer backed by llm.
func NewDecomposer(llm ai.LLMService) *Decomposer {
	return &Decomposer{llm: llm}
}

const decomposerSystemPromptTemplate = `You break a complex task into an ordered sequence of concrete subtasks. Output STRICT JSON only, no markdown fences, no commentary.

Schema:
{"subtasks": [{"title": string, "duration": string}]}

Rules:
1. Emit between 2 and 5 subtasks.
2. Each subtask's duration must be ISO-8601 "PT#H#M" form and must not exceed PT3H.
3. Order subtasks so that completing them in order makes sequential sense (e.g. research before booking).
4. Each title should be suffixed with a short parenthesized context tag derived from the parent task's title, e.g. "Book flights (Japan trip)".
5. Titles must be at least 3 characters of real content before the tag.

Parent task: %s`

const decomposerRetryHint = "Your previous output violated the constraints (wrong count, a duration over PT3H, or malformed duration). Emit between 2 and 5 subtasks, each duration PT#H#M and at most PT3H, output ONLY the JSON object."

type decomposerResponseJSON struct {
	Subtasks []struct {
		Title    string `json:"title"`
		Duration string `json:"duration"`
	} `json:"subtasks"`
}

// Decompose runs the Decomposer against a complex ClassifiedTask.
func (d *Decomposer) Decompose(ctx context.Context, task ClassifiedTask) (DecomposedTask, error) {
	systemPrompt := fmt.Sprintf(decomposerSystemPromptTemplate, task.Title)

	subtasks, err := d.attempt(ctx, systemPrompt, task.Title, false)
	if err != nil {
		slog.Warn("LD: retrying after invalid decomposition", "error", err)
		subtasks, err = d.attempt(ctx, systemPrompt, task.Title, true)
		if err != nil {
			return DecomposedTask{}, NewStageError(StageLD, KindLDInvalid, "decomposition invalid after retry", err)
		}
	}

	return DecomposedTask{ClassifiedTask: task, Subtasks: subtasks}, nil
}

func (d *Decomposer) attempt(ctx context.Context, systemPrompt, parentTitle string, withRetryHint bool) ([]SubtaskSpec, error) {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: parentTitle},
	}
	if withRetryHint {
		messages = append(messages, ai.Message{Role: ai.RoleUser, Content: decomposerRetryHint})
	}

	response, err := d.llm.Chat(ctx, messages)
	if err != nil {
		return nil, errors.Wrap(err, "LLM call failed")
	}

	jsonStr := stripCodeFence(response)
	var parsed decomposerResponseJSON
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal decomposer response")
	}

	return validateSubtasks(parsed)
}

func validateSubtasks(parsed decomposerResponseJSON) ([]SubtaskSpec, error) {
	if len(parsed.Subtasks) < minSubtasks || len(parsed.Subtasks) > maxSubtasks {
		return nil, fmt.Errorf("expected %d-%d subtasks, got %d", minSubtasks, maxSubtasks, len(parsed.Subtasks))
	}

	out := make([]SubtaskSpec, 0, len(parsed.Subtasks))
	for i, s := range parsed.Subtasks {
		title := strings.TrimSpace(s.Title)
		if len(stripContextTag(title)) < 3 {
			return nil, fmt.Errorf("subtask %d title too short: %q", i, title)
		}

		dur, err := ParseDuration(s.Duration)
		if err != nil {
			return nil, fmt.Errorf("subtask %d: %w", i, err)
		}
		if dur > MaxSubtaskDuration {
			return nil, fmt.Errorf("subtask %d duration %s exceeds PT3H", i, s.Duration)
		}
		if dur <= 0 {
			return nil, fmt.Errorf("subtask %d duration must be positive", i)
		}

		out = append(out, SubtaskSpec{Title: title, Duration: dur})
	}
	return out, nil
}

// stripContextTag removes a trailing "(...)" tag before measuring title
// length, so the 3-character minimum applies to real content only.
func stripContextTag(title string) string {
	if idx := strings.LastIndex(title, "("); idx >= 0 {
		return strings.TrimSpace(title[:idx])
	}
	return title
}
