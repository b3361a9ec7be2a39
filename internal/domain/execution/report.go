package execution

import (
	"time"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
)

// RunState is the lifecycle state of a pipeline run.
type RunState string

const (
	// RunIdle means the pipeline has not been executed.
	RunIdle RunState = stateIdle
	// RunRunning means steps are being executed.
	RunRunning RunState = stateRunning
	// RunSucceeded means every step completed or was skipped.
	RunSucceeded RunState = stateSucceeded
	// RunHalted means at least one step failed.
	RunHalted RunState = stateHalted
	// RunCancelled means the context was cancelled between steps.
	RunCancelled RunState = stateCancelled
	// RunRejected means the step set was invalid and nothing ran.
	RunRejected RunState = stateRejected
)

// String returns the string representation of the state.
func (s RunState) String() string {
	return string(s)
}

// ReportSummary provides aggregate statistics about a run.
type ReportSummary struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	NotRun    int
}

// Report is the outcome of one pipeline execution.
type Report struct {
	runID     string
	policy    FailurePolicy
	state     RunState
	results   []StepResult
	notRun    []compiler.StepID
	failure   *compiler.StepError
	err       error
	startedAt time.Time
	duration  time.Duration
}

func newReport(runID string, policy FailurePolicy, startedAt time.Time) *Report {
	return &Report{
		runID:     runID,
		policy:    policy,
		state:     RunIdle,
		results:   make([]StepResult, 0),
		notRun:    make([]compiler.StepID, 0),
		startedAt: startedAt,
	}
}

// RunID returns the identifier of the run.
func (r *Report) RunID() string {
	return r.runID
}

// Policy returns the failure policy the run used.
func (r *Report) Policy() FailurePolicy {
	return r.policy
}

// State returns the final lifecycle state.
func (r *Report) State() RunState {
	return r.state
}

// Results returns the run log in execution order. Steps that never ran are absent.
func (r *Report) Results() []StepResult {
	out := make([]StepResult, len(r.results))
	copy(out, r.results)
	return out
}

// NotRun returns steps that were never attempted, in topological order.
func (r *Report) NotRun() []compiler.StepID {
	out := make([]compiler.StepID, len(r.notRun))
	copy(out, r.notRun)
	return out
}

// Result returns the logged result for a step.
func (r *Report) Result(id compiler.StepID) (StepResult, bool) {
	for _, res := range r.results {
		if res.StepID().Equals(id) {
			return res, true
		}
	}
	return StepResult{}, false
}

// Failure returns the first step failure, or nil.
func (r *Report) Failure() *compiler.StepError {
	return r.failure
}

// Err returns the error that ended the run: a configuration error,
// the first step failure, or the context error. Nil on success.
func (r *Report) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.failure != nil {
		return r.failure
	}
	return nil
}

// Success returns true if every step completed or was skipped.
func (r *Report) Success() bool {
	return r.state == RunSucceeded
}

// StartedAt returns when execution began.
func (r *Report) StartedAt() time.Time {
	return r.startedAt
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.duration
}

// Summary returns aggregate statistics.
func (r *Report) Summary() ReportSummary {
	s := ReportSummary{
		Total:  len(r.results) + len(r.notRun),
		NotRun: len(r.notRun),
	}
	for _, res := range r.results {
		switch res.Status() {
		case compiler.StatusCompleted:
			s.Completed++
		case compiler.StatusSkipped:
			s.Skipped++
		case compiler.StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (r *Report) record(result StepResult) {
	r.results = append(r.results, result)
	if result.Failed() && r.failure == nil {
		r.failure = result.Failure()
	}
}

func (r *Report) skip(steps ...compiler.Step) {
	for _, s := range steps {
		r.notRun = append(r.notRun, s.ID())
	}
}
