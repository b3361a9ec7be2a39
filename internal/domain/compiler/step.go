package compiler

// Step is one named provisioning unit: a precondition, an action and a
// postcondition over the live host.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// DependsOn returns the IDs of steps that must be completed or skipped
	// before this one may run.
	DependsOn() []StepID

	// Check inspects the host without mutating it.
	// Returns StatusSatisfied when the desired state already holds.
	Check(ctx RunContext) (StepStatus, error)

	// Apply performs the mutation. It is never called when Check reported
	// StatusSatisfied.
	Apply(ctx RunContext) error

	// Verify re-inspects the host after Apply.
	// Returns StatusSatisfied when the postcondition holds.
	Verify(ctx RunContext) (StepStatus, error)

	// Explain returns human-readable context for this step.
	Explain(ctx ExplainContext) Explanation
}
