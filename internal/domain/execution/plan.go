package execution

import (
	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
)

// PlanEntry is what a dry run observed for one step.
type PlanEntry struct {
	step   compiler.Step
	status compiler.StepStatus
	err    error
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step compiler.Step, status compiler.StepStatus, err error) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
		err:    err,
	}
}

// Step returns the planned step.
func (e PlanEntry) Step() compiler.Step {
	return e.step
}

// Status returns the observed status: satisfied, needs-apply or unknown.
func (e PlanEntry) Status() compiler.StepStatus {
	return e.status
}

// Error returns why the status is unknown, if it is.
func (e PlanEntry) Error() error {
	return e.err
}

// PlanSummary provides aggregate statistics about a plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Unknown    int
}

// Plan lists every step of a pipeline with its observed status.
type Plan struct {
	entries []PlanEntry
}

// NewExecutionPlan creates an empty Plan.
func NewExecutionPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// Entries returns all plan entries in execution order.
func (p *Plan) Entries() []PlanEntry {
	out := make([]PlanEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// NeedsApply returns entries whose action would run.
func (p *Plan) NeedsApply() []PlanEntry {
	result := make([]PlanEntry, 0)
	for _, e := range p.entries {
		if e.status == compiler.StatusNeedsApply {
			result = append(result, e)
		}
	}
	return result
}

// HasChanges returns true if any step would apply.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.status != compiler.StatusSatisfied {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case compiler.StatusNeedsApply:
			summary.NeedsApply++
		case compiler.StatusSatisfied:
			summary.Satisfied++
		case compiler.StatusUnknown:
			summary.Unknown++
		}
	}
	return summary
}
