package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/adapters/metrics"
	"github.com/felixgeelhaar/benchup/internal/adapters/privilege"
	"github.com/felixgeelhaar/benchup/internal/app"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/domain/execution"
	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/ui"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision the host",
	Long: `Install runs the steps of the selected preset in dependency order.

Each step is skipped when the host already satisfies it. The run stops at
the first failing step unless --continue-on-error is given, in which case
every step that does not depend on a failure still runs.

Exit codes:
  0  the host is provisioned
  1  nothing ran (not root, or the target host is unreachable)
  2  a step failed or the run was interrupted
  3  the configuration is invalid`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

var (
	installFlags    configFlags
	continueOnError bool
	assumeYes       bool
	metricsFile     string
)

func init() {
	rootCmd.AddCommand(installCmd)

	installFlags.register(installCmd)
	installCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "run independent steps after a failure and report all failures")
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	installCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this textfile")
}

func runInstall(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := installFlags.load(cmd)
	if err != nil {
		return fail(cmd, exitConfig, err)
	}
	if cfg.Force && !assumeYes {
		if err := confirmForce(ctx, cfg); err != nil {
			return fail(cmd, exitConfig, err)
		}
	}

	logger := newLogger(cfg.Secrets())
	tgt, err := connectTarget(ctx, logger)
	if err != nil {
		return fail(cmd, exitPrecondition, fmt.Errorf("cannot reach target host: %w", err), cfg.Secrets()...)
	}
	defer func() { _ = tgt.close() }()

	opts := []app.Option{app.WithLogger(logger)}
	if continueOnError {
		opts = append(opts, app.WithPolicy(execution.ContinueAndReport))
	}
	var rec *metrics.Recorder
	if metricsFile != "" {
		rec = metrics.NewRecorder()
		opts = append(opts, app.WithObserver(rec))
	}

	svc := app.New(newToolAdapter(tgt, cfg, logger), privilege.NewChecker(tgt.host), opts...)
	result, err := svc.Install(ctx, cfg)

	if rec != nil && result != nil {
		if werr := rec.WriteTextfile(metricsFile); werr != nil {
			logger.Warn(ctx, "failed to write metrics", ports.Err(werr), ports.F("path", metricsFile))
		}
	}

	printer := ui.NewPrinter(cmd.OutOrStdout()).WithSecrets(cfg.Secrets()...)
	if result != nil && result.Report != nil {
		printer.Report(result.Report)
	}
	if err != nil {
		if result != nil && result.Report != nil && result.Report.Failure() != nil {
			return &exitError{code: classify(err), err: err}
		}
		return fail(cmd, classify(err), err, cfg.Secrets()...)
	}

	printer.AccessSummary(*result.Access)
	return nil
}

// confirmForce asks before an existing site is dropped. Without a terminal
// the operator must pass --yes.
func confirmForce(ctx context.Context, cfg config.Config) error {
	if !isTerminal(os.Stdin) {
		return config.NewUserError(config.ErrCodeConfigInvalid, "force drops the existing site and its database").
			WithContext("force").
			WithSuggestion("Pass --yes to confirm in non-interactive runs.")
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Drop and recreate %s?", cfg.SiteName)).
				Description("The existing site and its database are deleted without a backup.").
				Value(&confirmed),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("confirmation canceled: %w", err)
	}
	if !confirmed {
		return config.NewUserError(config.ErrCodeConfigInvalid, "force was not confirmed").
			WithContext("force").
			WithSuggestion("Run without --force to keep the existing site.")
	}
	return nil
}

// fail prints err with secrets masked and returns it with its exit code.
func fail(cmd *cobra.Command, code int, err error, secrets ...string) error {
	ui.NewPrinter(cmd.ErrOrStderr()).WithSecrets(secrets...).Failure(err)
	return &exitError{code: code, err: err}
}
