package execution

import (
	"context"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
)

// Planner evaluates every precondition without applying anything.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan checks each step in execution order.
// A failed check is recorded as StatusUnknown and planning continues, so the
// plan shows the whole pipeline. Graph errors abort planning.
//
// Later checks see the host as it is now, not as earlier steps would leave it,
// so a step downstream of a pending change may report unknown.
func (p *Planner) Plan(ctx context.Context, steps []compiler.Step) (*Plan, error) {
	graph, err := compiler.BuildStepGraph(steps)
	if err != nil {
		return nil, err
	}
	sorted, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	plan := NewExecutionPlan()
	runCtx := compiler.NewRunContext(ctx).WithDryRun(true)

	for _, step := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := step.Check(runCtx)
		if err != nil {
			plan.Add(NewPlanEntry(step, compiler.StatusUnknown, err))
			continue
		}
		plan.Add(NewPlanEntry(step, status, nil))
	}

	return plan, nil
}
