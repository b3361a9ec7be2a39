package compiler

// CheckFunc inspects the host and reports whether a condition holds.
type CheckFunc func(ctx RunContext) (bool, error)

// ApplyFunc mutates the host.
type ApplyFunc func(ctx RunContext) error

// FuncStep is a declarative Step assembled from closures.
// The zero Verify falls back to the precondition, which covers every step
// whose postcondition is "the precondition now holds".
type FuncStep struct {
	id          StepID
	deps        []StepID
	check       CheckFunc
	apply       ApplyFunc
	verify      CheckFunc
	explanation Explanation
}

// NewFuncStep creates a FuncStep. check and apply are required.
func NewFuncStep(id StepID, check CheckFunc, apply ApplyFunc) *FuncStep {
	return &FuncStep{
		id:    id,
		check: check,
		apply: apply,
	}
}

// WithDependsOn returns a copy of the step with the given dependencies appended.
func (s *FuncStep) WithDependsOn(deps ...StepID) *FuncStep {
	clone := *s
	clone.deps = make([]StepID, 0, len(s.deps)+len(deps))
	clone.deps = append(clone.deps, s.deps...)
	for _, dep := range deps {
		if !containsID(clone.deps, dep) {
			clone.deps = append(clone.deps, dep)
		}
	}
	return &clone
}

// WithVerify returns a copy of the step with an explicit postcondition.
func (s *FuncStep) WithVerify(verify CheckFunc) *FuncStep {
	clone := *s
	clone.verify = verify
	return &clone
}

// WithExplanation returns a copy of the step with the given explanation.
func (s *FuncStep) WithExplanation(exp Explanation) *FuncStep {
	clone := *s
	clone.explanation = exp
	return &clone
}

// ID implements Step.
func (s *FuncStep) ID() StepID {
	return s.id
}

// DependsOn implements Step.
func (s *FuncStep) DependsOn() []StepID {
	deps := make([]StepID, len(s.deps))
	copy(deps, s.deps)
	return deps
}

// Check implements Step.
func (s *FuncStep) Check(ctx RunContext) (StepStatus, error) {
	return statusOf(s.check(ctx))
}

// Apply implements Step.
func (s *FuncStep) Apply(ctx RunContext) error {
	return s.apply(ctx)
}

// Verify implements Step.
func (s *FuncStep) Verify(ctx RunContext) (StepStatus, error) {
	if s.verify == nil {
		return statusOf(s.check(ctx))
	}
	return statusOf(s.verify(ctx))
}

// Explain implements Step.
func (s *FuncStep) Explain(_ ExplainContext) Explanation {
	return s.explanation
}

func statusOf(ok bool, err error) (StepStatus, error) {
	if err != nil {
		return StatusUnknown, err
	}
	if ok {
		return StatusSatisfied, nil
	}
	return StatusNeedsApply, nil
}

func containsID(ids []StepID, id StepID) bool {
	for _, existing := range ids {
		if existing.Equals(id) {
			return true
		}
	}
	return false
}
