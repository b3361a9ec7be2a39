package execution

import (
	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
)

// fakeStep is a scriptable step that records which phases ran.
type fakeStep struct {
	id          compiler.StepID
	deps        []compiler.StepID
	satisfied   bool
	checkErr    error
	applyErr    error
	verifyFails bool
	onApply     func()
	applyCtxErr error

	checks  int
	applies int
	verifys int
	trace   *[]string
}

func newFakeStep(id string, deps ...string) *fakeStep {
	s := &fakeStep{id: compiler.MustNewStepID(id)}
	for _, d := range deps {
		s.deps = append(s.deps, compiler.MustNewStepID(d))
	}
	return s
}

func (s *fakeStep) ID() compiler.StepID          { return s.id }
func (s *fakeStep) DependsOn() []compiler.StepID { return s.deps }

func (s *fakeStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	s.checks++
	if s.checkErr != nil {
		return compiler.StatusUnknown, s.checkErr
	}
	if s.satisfied {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

func (s *fakeStep) Apply(ctx compiler.RunContext) error {
	s.applies++
	if s.trace != nil {
		*s.trace = append(*s.trace, s.id.String())
	}
	if s.onApply != nil {
		s.onApply()
	}
	s.applyCtxErr = ctx.Context().Err()
	if s.applyErr != nil {
		return s.applyErr
	}
	s.satisfied = !s.verifyFails
	return nil
}

func (s *fakeStep) Verify(_ compiler.RunContext) (compiler.StepStatus, error) {
	s.verifys++
	if s.satisfied {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

func (s *fakeStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(s.id.String(), "", nil)
}

func stepsOf(fakes ...*fakeStep) []compiler.Step {
	steps := make([]compiler.Step, len(fakes))
	for i, f := range fakes {
		steps[i] = f
	}
	return steps
}

func idsOf(results []StepResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.StepID().String()
	}
	return ids
}
