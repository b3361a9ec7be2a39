package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/domain/recipe"
	"github.com/felixgeelhaar/benchup/internal/ui"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the step catalog and the presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ui.NewPrinter(cmd.OutOrStdout()).Catalog(recipe.Default(), recipe.Presets())
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <step-id>",
	Short: "Explain what a step does",
	Long: `Explain prints what a step checks and changes, the tools it runs and the
steps it waits for. Step IDs are listed by 'benchup plan', for example:

  benchup explain site:create:site1.local`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

var explainFlags configFlags

func init() {
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(explainCmd)

	explainFlags.register(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := explainFlags.load(cmd)
	if err != nil {
		return fail(cmd, exitConfig, err)
	}

	// Explanations never touch the host, so every step of the catalog is built.
	all := cfg.With(func(c *config.Config) {
		c.Steps = recipe.Default().Names()
	})
	steps, err := recipe.Build(all, nil)
	if err != nil {
		return fail(cmd, exitConfig, err)
	}

	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.ID().String() == args[0] {
			ui.NewPrinter(cmd.OutOrStdout()).Explanation(s, verbose)
			return nil
		}
		ids = append(ids, s.ID().String())
	}

	err = compiler.NewStepError(compiler.KindInvalidConfiguration, fmt.Sprintf("no step %q in this configuration", args[0])).
		WithSuggestion("Known steps: " + strings.Join(ids, ", "))
	return fail(cmd, exitConfig, err)
}
