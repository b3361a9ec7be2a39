// Package app wires configuration, the step catalog and the pipeline into
// the install and plan operations the CLI exposes.
package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/benchup/internal/adapters/logging"
	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/domain/execution"
	"github.com/felixgeelhaar/benchup/internal/domain/recipe"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

// AdministratorLogin is the site's built-in administrator account.
const AdministratorLogin = "Administrator"

// Benchup is the application service.
type Benchup struct {
	tools     ports.ToolAdapter
	privilege ports.PrivilegeChecker
	logger    ports.Logger
	policy    execution.FailurePolicy
	observers []execution.Observer
}

// Option configures Benchup.
type Option func(*Benchup)

// WithLogger sets the logger passed to the pipeline.
func WithLogger(logger ports.Logger) Option {
	return func(b *Benchup) {
		b.logger = logging.OrNop(logger)
	}
}

// WithPolicy sets the failure policy of install runs.
func WithPolicy(policy execution.FailurePolicy) Option {
	return func(b *Benchup) {
		b.policy = policy
	}
}

// WithObserver registers a pipeline observer, such as a metrics recorder.
func WithObserver(o execution.Observer) Option {
	return func(b *Benchup) {
		b.observers = append(b.observers, o)
	}
}

// New creates the service. Every host interaction of a step goes through
// tools; the privilege check runs before any of them.
func New(tools ports.ToolAdapter, privilege ports.PrivilegeChecker, opts ...Option) *Benchup {
	b := &Benchup{
		tools:     tools,
		privilege: privilege,
		logger:    logging.NewNopLogger(),
		policy:    execution.StopOnFirstFailure,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Steps validates cfg and returns the steps it selects, without touching the host.
func (b *Benchup) Steps(cfg config.Config) ([]compiler.Step, error) {
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	return recipe.Build(cfg, b.tools)
}

// Plan evaluates every precondition and reports what an install would change.
func (b *Benchup) Plan(ctx context.Context, cfg config.Config) (*execution.Plan, error) {
	steps, err := b.Steps(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.privilege.CheckPrivilege(ctx); err != nil {
		return nil, err
	}
	return execution.NewPlanner().Plan(ctx, steps)
}

// Result is the outcome of an install.
type Result struct {
	Report *execution.Report
	// Access is set when the run succeeded.
	Access *AccessSummary
}

// Install provisions the host. Configuration and privilege problems are
// returned before any step runs; step failures are returned together with
// the report.
func (b *Benchup) Install(ctx context.Context, cfg config.Config) (*Result, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}
	steps, err := recipe.Build(cfg, b.tools)
	if err != nil {
		return nil, err
	}
	if err := b.privilege.CheckPrivilege(ctx); err != nil {
		return nil, err
	}

	opts := []execution.Option{execution.WithPolicy(b.policy), execution.WithLogger(b.logger)}
	for _, o := range b.observers {
		opts = append(opts, execution.WithObserver(o))
	}

	pipeline, err := execution.NewPipeline(steps, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	report, err := pipeline.Execute(ctx)
	result := &Result{Report: report}
	if err != nil {
		return result, err
	}

	access := b.Summary(ctx, cfg)
	result.Access = &access
	return result, nil
}

// AccessSummary tells the operator how to reach the installed site.
type AccessSummary struct {
	URL           string
	Site          string
	SystemUser    string
	AdminLogin    string
	BenchPath     string
	Apps          []string
	AddressLookup error
}

// Summary builds the access summary for cfg. The production preset serves
// the site on port 80; everything else uses the bench development server.
func (b *Benchup) Summary(ctx context.Context, cfg config.Config) AccessSummary {
	summary := AccessSummary{
		Site:       cfg.SiteName,
		SystemUser: cfg.SystemUser,
		AdminLogin: AdministratorLogin,
		BenchPath:  cfg.BenchPath(),
		Apps:       cfg.AppNames(),
	}

	address, err := b.tools.PrimaryAddress(ctx, ports.ExecContext{})
	if err != nil {
		summary.AddressLookup = err
		address = cfg.SiteName
		b.logger.Warn(ctx, "could not determine host address", ports.Err(err))
	}

	summary.URL = SiteURL(address, servesProduction(cfg))
	return summary
}

// SiteURL returns the URL under which the site is reachable.
func SiteURL(address string, production bool) string {
	if production {
		return "http://" + address
	}
	return "http://" + address + ":8000"
}

func servesProduction(cfg config.Config) bool {
	sel, err := recipe.Selection(cfg)
	if err != nil {
		return false
	}
	names, err := recipe.Default().Closure(sel.Targets, sel.Assumes...)
	if err != nil {
		return false
	}
	for _, n := range names {
		if n == recipe.EntryProductionSetup {
			return true
		}
	}
	return false
}
