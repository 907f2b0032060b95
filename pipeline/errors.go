package pipeline

import "fmt"

// Stage names used in StageError, matching the error-kind taxonomy of
// spec.md §7.
const (
	StageSE = "SE"
	StageAR = "AR"
	StageTS = "TS"
	StageTD = "TD"
	StageLD = "LD"
)

// Kind enumerates the error taxonomy that pipeline stages raise. These are
// kinds, not Go types: callers switch on Kind rather than using errors.As
// against a family of distinct structs.
type Kind string

const (
	KindParseLLM      Kind = "PARSE_LLM"
	KindTSParse       Kind = "TS_PARSE"
	KindTSInvariant   Kind = "TS_INVARIANT"
	KindTDNoCalendar  Kind = "TD_NO_CAL"
	KindLDInvalid     Kind = "LD_INVALID"
)

// StageError is the error value every pipeline stage returns on failure.
// It names the stage and kind so the orchestrator's trace can report both
// without inspecting Go type information.
type StageError struct {
	Stage string
	Kind  Kind
	Msg   string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Stage, e.Kind, e.Msg)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError.
func NewStageError(stage string, kind Kind, msg string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Msg: msg, Err: err}
}
