package compiler

// StepStatus represents either what a check observed or how a step ended.
type StepStatus string

const (
	// StatusSatisfied indicates the step's desired state is already met.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step's action has to run.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusUnknown indicates the step's state could not be determined.
	StatusUnknown StepStatus = "unknown"

	// StatusSkipped indicates the precondition held and no action ran.
	StatusSkipped StepStatus = "skipped"
	// StatusCompleted indicates the action ran and the postcondition holds.
	StatusCompleted StepStatus = "completed"
	// StatusFailed indicates the check, action or verification failed.
	StatusFailed StepStatus = "failed"
	// StatusNotRun indicates the step was never attempted in this run.
	StatusNotRun StepStatus = "not-run"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// Unblocks reports whether dependents of a step with this outcome may run.
func (s StepStatus) Unblocks() bool {
	return s == StatusSkipped || s == StatusCompleted
}
