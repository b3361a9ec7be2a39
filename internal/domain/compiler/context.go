package compiler

import "context"

// RunContext provides context for step execution (Check, Apply, Verify).
type RunContext struct {
	ctx    context.Context
	runID  string
	dryRun bool
}

// NewRunContext creates a new RunContext with the given context.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{
		ctx: ctx,
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// RunID returns the identifier of the pipeline run, if any.
func (r RunContext) RunID() string {
	return r.runID
}

// WithRunID returns a new RunContext tagged with a run identifier.
func (r RunContext) WithRunID(runID string) RunContext {
	next := r
	next.runID = runID
	return next
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// WithDryRun returns a new RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	next := r
	next.dryRun = dryRun
	return next
}

// ExplainContext provides context for generating step explanations.
type ExplainContext struct {
	verbose bool
}

// NewExplainContext creates a new ExplainContext.
func NewExplainContext() ExplainContext {
	return ExplainContext{}
}

// Verbose returns whether verbose explanations are requested.
func (e ExplainContext) Verbose() bool {
	return e.verbose
}

// WithVerbose returns a new ExplainContext with verbose mode set.
func (e ExplainContext) WithVerbose(verbose bool) ExplainContext {
	next := e
	next.verbose = verbose
	return next
}
