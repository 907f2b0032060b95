package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// StageStatus is one stage's outcome in a Trace.
type StageStatus string

const (
	StatusPending StageStatus = "pending"
	StatusOK      StageStatus = "ok"
	StatusSkipped StageStatus = "skipped"
	StatusError   StageStatus = "error"
)

// StageRecord is one entry of a Trace.
type StageRecord struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Trace is the orchestrator's per-stage run log, renderable as either
// human-readable text or JSON (spec.md §4.9). RunID is a short correlation
// id distinct from the UUID task ids EC persists, meant for grepping logs
// across a single query's stages.
type Trace struct {
	RunID   string         `json:"run_id"`
	Records []StageRecord `json:"stages"`
}

// NewTrace seeds a Trace with every stage pending, in pipeline order.
func NewTrace(stages ...string) *Trace {
	t := &Trace{RunID: shortuuid.New(), Records: make([]StageRecord, len(stages))}
	for i, s := range stages {
		t.Records[i] = StageRecord{Stage: s, Status: StatusPending}
	}
	return t
}

func (t *Trace) set(stage string, status StageStatus, detail string) {
	for i := range t.Records {
		if t.Records[i].Stage == stage {
			t.Records[i].Status = status
			t.Records[i].Detail = detail
			return
		}
	}
	t.Records = append(t.Records, StageRecord{Stage: stage, Status: status, Detail: detail})
}

// OK marks stage as having completed successfully.
func (t *Trace) OK(stage string) { t.set(stage, StatusOK, "") }

// Skip marks stage as skipped (e.g. LD when the task is simple).
func (t *Trace) Skip(stage, reason string) { t.set(stage, StatusSkipped, reason) }

// Fail marks stage as failed with err's message.
func (t *Trace) Fail(stage string, err error) { t.set(stage, StatusError, err.Error()) }

// HasError reports whether any stage recorded an error.
func (t *Trace) HasError() bool {
	for _, r := range t.Records {
		if r.Status == StatusError {
			return true
		}
	}
	return false
}

// String renders the trace human-readably, one line per stage.
func (t *Trace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", t.RunID)
	for _, r := range t.Records {
		fmt.Fprintf(&b, "%-4s %-7s", r.Stage, r.Status)
		if r.Detail != "" {
			fmt.Fprintf(&b, " — %s", r.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// JSON renders the trace as an indented JSON document.
func (t *Trace) JSON() (string, error) {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
