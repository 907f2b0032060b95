package cli

import "github.com/kestrelsched/calscribe/orchestrator"

// exitError pins the process exit code spec.md §6 assigns to a run
// outcome: 0 success/partial, 2 infeasible, 3 backend unavailable, 1
// anything else.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// classifyRunErr wraps err with the exit code its kind maps to.
func classifyRunErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := orchestrator.IsInfeasible(err); ok {
		return &exitError{code: 2, err: err}
	}
	if _, ok := orchestrator.IsBackendUnavailable(err); ok {
		return &exitError{code: 3, err: err}
	}
	return &exitError{code: 1, err: err}
}

// ExitCodeFor inspects err (as returned by a command's RunE) and reports
// the process exit code calscribe should terminate with.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 1
}
