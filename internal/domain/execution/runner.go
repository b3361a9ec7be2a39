package execution

import (
	"time"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

// Runner executes one step: check, then apply, then verify.
// It holds no per-run state and may be shared.
type Runner struct {
	logger ports.Logger
	now    func() time.Time
}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

// WithLogger returns a Runner that logs each phase at debug level.
func (r *Runner) WithLogger(logger ports.Logger) *Runner {
	return &Runner{logger: logger, now: r.now}
}

// Run executes a single step and classifies the outcome.
func (r *Runner) Run(ctx compiler.RunContext, step compiler.Step) StepResult {
	id := step.ID()
	start := r.now()
	result := r.run(ctx, step)
	result = result.WithDuration(r.now().Sub(start))

	if r.logger != nil {
		fields := []ports.Field{
			ports.F("step", id.String()),
			ports.F("status", result.Status().String()),
			ports.F("duration", result.Duration().String()),
		}
		if ctx.RunID() != "" {
			fields = append(fields, ports.F("run_id", ctx.RunID()))
		}
		if failure := result.Failure(); failure != nil {
			fields = append(fields, ports.F("kind", failure.Kind.String()), ports.Err(failure.Underlying))
			r.logger.Error(ctx.Context(), "step failed", fields...)
		} else {
			r.logger.Debug(ctx.Context(), "step finished", fields...)
		}
	}

	return result
}

func (r *Runner) run(ctx compiler.RunContext, step compiler.Step) StepResult {
	id := step.ID()

	status, err := step.Check(ctx)
	if err != nil {
		return NewStepResult(id, compiler.StatusFailed, compiler.NewPreconditionCheckFailedError(id.String(), err))
	}
	if status == compiler.StatusSatisfied {
		return NewStepResult(id, compiler.StatusSkipped, nil)
	}

	if err := step.Apply(ctx); err != nil {
		return NewStepResult(id, compiler.StatusFailed, compiler.NewActionFailedError(id.String(), err))
	}

	status, err = step.Verify(ctx)
	if err != nil || status != compiler.StatusSatisfied {
		return NewStepResult(id, compiler.StatusFailed, compiler.NewVerificationFailedError(id.String(), err))
	}

	return NewStepResult(id, compiler.StatusCompleted, nil)
}
