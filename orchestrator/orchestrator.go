// Package orchestrator is the linear driver that wires
// query → SE → AR → TS → TD → (LD) → TA → EC, capturing a per-stage
// trace and short-circuiting on the first stage failure (spec.md §4.9).
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kestrelsched/calscribe/allot"
	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/eventcreator"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/scheduler"
)

const (
	stageSE = "SE"
	stageAR = "AR"
	stageTS = "TS"
	stageTD = "TD"
	stageLD = "LD"
	stageTA = "TA"
	stageEC = "EC"
)

// Orchestrator wires every pipeline stage plus the Allotter and
// EventCreator into one linear run.
type Orchestrator struct {
	se       *pipeline.SlotExtractor
	ar       *pipeline.AbsoluteResolver
	ts       *pipeline.TimeStandardizer
	td       *pipeline.DifficultyAnalyzer
	ld       *pipeline.Decomposer
	allotter *allot.Allotter
	ec       *eventcreator.EventCreator
	bridge   *calbridge.Client
}

// New builds an Orchestrator from its constituent stages.
func New(se *pipeline.SlotExtractor, ar *pipeline.AbsoluteResolver, ts *pipeline.TimeStandardizer, td *pipeline.DifficultyAnalyzer, ld *pipeline.Decomposer, allotter *allot.Allotter, ec *eventcreator.EventCreator, bridge *calbridge.Client) *Orchestrator {
	return &Orchestrator{se: se, ar: ar, ts: ts, td: td, ld: ld, allotter: allotter, ec: ec, bridge: bridge}
}

// RunResult is what a completed (possibly partial) run produced.
type RunResult struct {
	Scheduled pipeline.ScheduledTask
	Created   eventcreator.Result
}

// Run executes one query end to end, returning the final trace regardless
// of success, plus a RunResult only when EC ran.
func (o *Orchestrator) Run(ctx context.Context, q pipeline.Query, now time.Time) (*RunResult, *Trace, error) {
	trace := NewTrace(stageSE, stageAR, stageTS, stageTD, stageLD, stageTA, stageEC)

	raw, err := o.se.Extract(ctx, q)
	if err != nil {
		trace.Fail(stageSE, err)
		return nil, trace, err
	}
	trace.OK(stageSE)

	tctx := pipeline.BuildTemporalContext(now, q.TZ)
	absolute, err := o.ar.Resolve(ctx, raw, tctx)
	if err != nil {
		trace.Fail(stageAR, err)
		return nil, trace, err
	}
	trace.OK(stageAR)

	window, err := o.ts.Standardize(absolute, now, q.TZ)
	if err != nil {
		trace.Fail(stageTS, err)
		return nil, trace, err
	}
	trace.OK(stageTS)

	calendars, err := o.fetchCalendarOptions(ctx)
	if err != nil {
		trace.Fail(stageTD, err)
		return nil, trace, err
	}

	classified, err := o.td.Classify(ctx, q, window.Duration, calendars)
	if err != nil {
		trace.Fail(stageTD, err)
		return nil, trace, err
	}
	trace.OK(stageTD)

	if classified.Type == pipeline.TaskSimple {
		trace.Skip(stageLD, "task classified as simple")

		scheduled, err := o.allotter.AllotSimple(ctx, classified, window, q.TZ)
		if err != nil {
			trace.Fail(stageTA, err)
			return nil, trace, err
		}
		trace.OK(stageTA)

		result, err := o.ec.Create(ctx, scheduled)
		if err != nil {
			trace.Fail(stageEC, err)
			return nil, trace, err
		}
		if result.Partial() {
			trace.set(stageEC, StatusOK, partialDetail(result))
		} else {
			trace.OK(stageEC)
		}
		return &RunResult{Scheduled: scheduled, Created: result}, trace, nil
	}

	decomposed, err := o.ld.Decompose(ctx, classified)
	if err != nil {
		trace.Fail(stageLD, err)
		return nil, trace, err
	}
	trace.OK(stageLD)

	scheduled, err := o.allotter.AllotComplex(ctx, decomposed, window, q.TZ)
	if err != nil {
		trace.Fail(stageTA, err)
		return nil, trace, err
	}
	trace.OK(stageTA)

	result, err := o.ec.Create(ctx, scheduled)
	if err != nil {
		trace.Fail(stageEC, err)
		return nil, trace, err
	}
	if result.Partial() {
		trace.set(stageEC, StatusOK, partialDetail(result))
	} else {
		trace.OK(stageEC)
	}
	return &RunResult{Scheduled: scheduled, Created: result}, trace, nil
}

func (o *Orchestrator) fetchCalendarOptions(ctx context.Context) ([]pipeline.CalendarOption, error) {
	cals, err := o.bridge.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.CalendarOption, len(cals))
	for i, c := range cals {
		out[i] = pipeline.CalendarOption{ID: c.ID, Title: c.Title, Writable: c.AllowsModifications}
	}
	return out, nil
}

// partialDetail renders EC_PARTIAL(n,total): n successful children over
// total attempted, excluding the parent row itself from both counts.
func partialDetail(r eventcreator.Result) string {
	succeeded := len(r.CreatedTaskIDs) - 1 // CreatedTaskIDs[0] is the parent
	total := succeeded + len(r.Failures)
	return fmt.Sprintf("EC_PARTIAL(%d,%d)", succeeded, total)
}

// classification helpers, used by cmd/calscribe to choose exit codes.

// IsInfeasible reports whether err is a scheduler.InfeasibleError.
func IsInfeasible(err error) (*scheduler.InfeasibleError, bool) {
	var infeasible *scheduler.InfeasibleError
	ok := errors.As(err, &infeasible)
	return infeasible, ok
}

// IsBackendUnavailable reports whether err is a calbridge.BackendUnavailableError.
func IsBackendUnavailable(err error) (*calbridge.BackendUnavailableError, bool) {
	var unavailable *calbridge.BackendUnavailableError
	ok := errors.As(err, &unavailable)
	return unavailable, ok
}
