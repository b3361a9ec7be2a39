package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/adapters/privilege"
	"github.com/felixgeelhaar/benchup/internal/app"
	"github.com/felixgeelhaar/benchup/internal/ui"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what install would change",
	Long: `Plan checks every step of the selected preset against the host and
shows which ones would run, without changing anything.

Checks see the host as it is now, so steps that depend on pending changes
may show as unknown.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

var planFlags configFlags

func init() {
	rootCmd.AddCommand(planCmd)

	planFlags.register(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := planFlags.load(cmd)
	if err != nil {
		return fail(cmd, exitConfig, err)
	}

	logger := newLogger(cfg.Secrets())
	tgt, err := connectTarget(ctx, logger)
	if err != nil {
		return fail(cmd, exitPrecondition, fmt.Errorf("cannot reach target host: %w", err), cfg.Secrets()...)
	}
	defer func() { _ = tgt.close() }()

	svc := app.New(newToolAdapter(tgt, cfg, logger), privilege.NewChecker(tgt.host), app.WithLogger(logger))
	plan, err := svc.Plan(ctx, cfg)
	if err != nil {
		return fail(cmd, classify(err), err, cfg.Secrets()...)
	}

	ui.NewPrinter(cmd.OutOrStdout()).WithSecrets(cfg.Secrets()...).Plan(plan)
	return nil
}
