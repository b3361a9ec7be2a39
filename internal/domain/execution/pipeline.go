package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

// ErrAlreadyExecuted is returned when Execute is called on a used pipeline.
var ErrAlreadyExecuted = errors.New("pipeline has already been executed")

// FailurePolicy decides what happens after a step fails.
type FailurePolicy int

const (
	// StopOnFirstFailure halts the run at the first failed step.
	StopOnFirstFailure FailurePolicy = iota
	// ContinueAndReport keeps running steps that do not depend on a failure.
	ContinueAndReport
)

// String returns the string representation of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case StopOnFirstFailure:
		return "stop-on-first-failure"
	case ContinueAndReport:
		return "continue-and-report"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// States and events for the run state machine.
const (
	stateIdle      = "idle"
	stateRunning   = "running"
	stateSucceeded = "succeeded"
	stateHalted    = "halted"
	stateCancelled = "cancelled"
	stateRejected  = "rejected"

	eventStart  = "START"
	eventReject = "REJECT"
	eventFinish = "FINISH"
	eventHalt   = "HALT"
	eventCancel = "CANCEL"
)

type runContext struct {
	RunID string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy sets the failure policy. The default is StopOnFirstFailure.
func WithPolicy(policy FailurePolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithObserver registers an observer for progress events.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, o)
	}
}

// WithRunner replaces the step runner.
func WithRunner(r *Runner) Option {
	return func(p *Pipeline) {
		p.runner = r
	}
}

// WithLogger sets the logger used for run-level messages and by the default runner.
func WithLogger(logger ports.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// Pipeline executes a fixed set of steps once, in dependency order.
type Pipeline struct {
	steps     []compiler.Step
	policy    FailurePolicy
	runner    *Runner
	logger    ports.Logger
	observers []Observer
	runID     string
	now       func() time.Time

	mu     sync.Mutex
	interp *statekit.Interpreter[runContext]
}

// NewPipeline creates a pipeline over the given steps.
// Graph problems are reported by Execute, before any step runs.
func NewPipeline(steps []compiler.Step, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		steps:  append([]compiler.Step(nil), steps...),
		policy: StopOnFirstFailure,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = NewRunner()
		if p.logger != nil {
			p.runner = p.runner.WithLogger(p.logger)
		}
	}

	interp, err := buildRunMachine(p.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}
	p.interp = interp
	p.interp.Start()

	return p, nil
}

// buildRunMachine constructs the run lifecycle: idle, running, then one of
// succeeded, halted, cancelled; or idle straight to rejected.
func buildRunMachine(runID string) (*statekit.Interpreter[runContext], error) {
	machine, err := statekit.NewMachine[runContext]("benchup-run").
		WithInitial(stateIdle).
		WithContext(runContext{RunID: runID}).
		State(stateIdle).
		On(eventStart).Target(stateRunning).
		On(eventReject).Target(stateRejected).Done().
		State(stateRunning).
		On(eventFinish).Target(stateSucceeded).
		On(eventHalt).Target(stateHalted).
		On(eventCancel).Target(stateCancelled).Done().
		// Terminal states loop on REJECT so a finished run never leaves them.
		State(stateSucceeded).
		On(eventReject).Target(stateSucceeded).Done().
		State(stateHalted).
		On(eventReject).Target(stateHalted).Done().
		State(stateCancelled).
		On(eventReject).Target(stateCancelled).Done().
		State(stateRejected).
		On(eventReject).Target(stateRejected).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// RunID returns the identifier of this pipeline's run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the current lifecycle state.
func (p *Pipeline) State() RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state()
}

func (p *Pipeline) state() RunState {
	return RunState(p.interp.State().Value)
}

// Order returns the steps in execution order without running anything.
func (p *Pipeline) Order() ([]compiler.Step, error) {
	graph, err := compiler.BuildStepGraph(p.steps)
	if err != nil {
		return nil, err
	}
	return graph.TopologicalSort()
}

// Execute runs the pipeline. It may be called once.
// The returned error equals report.Err().
func (p *Pipeline) Execute(ctx context.Context) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state() != RunIdle {
		return nil, ErrAlreadyExecuted
	}

	start := p.now()
	report := newReport(p.runID, p.policy, start)
	defer func() {
		report.duration = p.now().Sub(start)
		report.state = p.state()
		for _, o := range p.observers {
			o.RunFinished(report)
		}
	}()

	graph, err := compiler.BuildStepGraph(p.steps)
	if err != nil {
		p.interp.Send(statekit.Event{Type: eventReject})
		report.err = err
		p.logError(ctx, "pipeline rejected", err)
		return report, err
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		p.interp.Send(statekit.Event{Type: eventReject})
		report.err = compiler.NewCyclicDependencyError(graph.FindCycle())
		return report, report.err
	}

	p.interp.Send(statekit.Event{Type: eventStart})
	p.logInfo(ctx, "pipeline started",
		ports.F("steps", len(order)),
		ports.F("policy", p.policy.String()))

	// Steps see a context that outlives cancellation so an in-flight tool
	// call is never killed; ctx is only consulted between steps.
	runCtx := compiler.NewRunContext(context.WithoutCancel(ctx)).WithRunID(p.runID)
	outcome := make(map[string]compiler.StepStatus, len(order))

	for i, step := range order {
		if err := ctx.Err(); err != nil {
			report.skip(order[i:]...)
			report.err = err
			p.interp.Send(statekit.Event{Type: eventCancel})
			p.logError(ctx, "pipeline cancelled", err)
			return report, report.Err()
		}

		if blocked(step, outcome) {
			outcome[step.ID().String()] = compiler.StatusNotRun
			report.skip(step)
			continue
		}

		for _, o := range p.observers {
			o.StepStarted(p.runID, step)
		}
		result := p.runner.Run(runCtx, step)
		outcome[step.ID().String()] = result.Status()
		report.record(result)
		for _, o := range p.observers {
			o.StepFinished(p.runID, result)
		}

		if result.Failed() && p.policy == StopOnFirstFailure {
			report.skip(order[i+1:]...)
			break
		}
	}

	if report.failure != nil {
		p.interp.Send(statekit.Event{Type: eventHalt})
		p.logError(ctx, "pipeline halted", report.failure)
		return report, report.Err()
	}

	if len(report.notRun) > 0 {
		p.interp.Send(statekit.Event{Type: eventHalt})
		return report, report.Err()
	}

	p.interp.Send(statekit.Event{Type: eventFinish})
	p.logInfo(ctx, "pipeline succeeded", ports.F("steps", len(order)))
	return report, nil
}

// blocked reports whether any dependency of step did not complete or skip.
func blocked(step compiler.Step, outcome map[string]compiler.StepStatus) bool {
	for _, dep := range step.DependsOn() {
		if !outcome[dep.String()].Unblocks() {
			return true
		}
	}
	return false
}

func (p *Pipeline) logInfo(ctx context.Context, msg string, fields ...ports.Field) {
	if p.logger == nil {
		return
	}
	p.logger.Info(ctx, msg, append(fields, ports.F("run_id", p.runID))...)
}

func (p *Pipeline) logError(ctx context.Context, msg string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error(ctx, msg, ports.Err(err), ports.F("run_id", p.runID))
}
