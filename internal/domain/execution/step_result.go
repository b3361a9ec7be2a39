// Package execution runs steps in dependency order and records what happened.
package execution

import (
	"time"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
)

// StepResult captures the outcome of running a single step.
type StepResult struct {
	stepID   compiler.StepID
	status   compiler.StepStatus
	err      *compiler.StepError
	duration time.Duration
}

// NewStepResult creates a new StepResult. err is only kept for failed results.
func NewStepResult(stepID compiler.StepID, status compiler.StepStatus, err *compiler.StepError) StepResult {
	r := StepResult{
		stepID: stepID,
		status: status,
	}
	if status == compiler.StatusFailed {
		r.err = err
	}
	return r
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() compiler.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() compiler.StepStatus {
	return r.status
}

// Failure returns the classified failure, or nil unless the step failed.
func (r StepResult) Failure() *compiler.StepError {
	return r.err
}

// Error returns the failure as an error, or nil.
func (r StepResult) Error() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Completed returns true if the step's action ran and verified.
func (r StepResult) Completed() bool {
	return r.status == compiler.StatusCompleted
}

// Skipped returns true if the precondition already held.
func (r StepResult) Skipped() bool {
	return r.status == compiler.StatusSkipped
}

// Failed returns true if the step failed.
func (r StepResult) Failed() bool {
	return r.status == compiler.StatusFailed
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}
