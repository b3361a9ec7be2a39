package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/domain/recipe"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Init asks for the site, the system user, the database and the apps, and
writes a configuration file. Secrets are never written; supply them through
BENCHUP_DB_ROOT_PASSWORD, BENCHUP_ADMIN_PASSWORD and
BENCHUP_SYSTEM_USER_PASSWORD when running install.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initOutput    string
	initDefaults  bool
	initOverwrite bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutput, "output", "o", config.DefaultFileName, "file to write, .yaml or .toml")
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the defaults without asking")
	initCmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "replace an existing file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(initOutput); err == nil && !initOverwrite {
		return fail(cmd, exitConfig, config.NewUserError(config.ErrCodeConfigWrite, "configuration file already exists").
			WithContext(initOutput).
			WithSuggestion("Pass --overwrite to replace it, or --output to choose another file."))
	}

	cfg := config.Default()
	if !initDefaults {
		if !isTerminal(os.Stdin) {
			return fail(cmd, exitConfig, errors.New("init needs an interactive terminal; pass --defaults to write the defaults"))
		}
		answers, err := runWizard(cmd, cfg)
		if err != nil {
			return fail(cmd, exitConfig, err)
		}
		cfg = answers
	}

	if err := cfg.Validate(false); err != nil {
		return fail(cmd, exitConfig, err)
	}
	if err := config.Save(initOutput, cfg.WithoutSecrets()); err != nil {
		return fail(cmd, exitConfig, err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Wrote %s\n\n", initOutput)
	_, _ = fmt.Fprintf(out, "Next:\n")
	_, _ = fmt.Fprintf(out, "  export %s=...\n", config.EnvDBRootPassword)
	_, _ = fmt.Fprintf(out, "  export %s=...\n", config.EnvAdminPassword)
	_, _ = fmt.Fprintf(out, "  sudo -E benchup install --config %s\n", initOutput)
	return nil
}

// wizardAnswers holds the form values; apps are edited as a comma-separated list.
type wizardAnswers struct {
	site    string
	user    string
	dbType  string
	dbHost  string
	runtime string
	branch  string
	apps    string
	preset  string
}

func runWizard(cmd *cobra.Command, defaults config.Config) (config.Config, error) {
	a := wizardAnswers{
		site:    defaults.SiteName,
		user:    defaults.SystemUser,
		dbType:  defaults.DBType,
		dbHost:  defaults.DBHost,
		runtime: defaults.RuntimeVersion,
		branch:  defaults.FrappeBranch,
		apps:    strings.Join(defaults.AppNames(), ","),
		preset:  defaults.Preset,
	}

	presetOptions := make([]huh.Option[string], 0, len(recipe.Presets()))
	for _, p := range recipe.Presets() {
		presetOptions = append(presetOptions, huh.NewOption(p.Name+" - "+p.Description, p.Name))
	}

	form := huh.NewForm(
		// Site
		huh.NewGroup(
			huh.NewInput().
				Title("Site name").
				Description("The site's host name, e.g. erp.example.com").
				Value(&a.site).
				Validate(validation.ValidateSiteName),
			huh.NewInput().
				Title("System user").
				Description("OS account that owns the bench").
				Value(&a.user).
				Validate(validation.ValidateUsername),
		),

		// Database
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("MariaDB", config.DBMariaDB),
					huh.NewOption("PostgreSQL", config.DBPostgres),
				).
				Value(&a.dbType),
			huh.NewInput().
				Title("Database host").
				Description("localhost installs and configures the server on this host").
				Value(&a.dbHost).
				Validate(validation.ValidateHostname),
		),

		// Bench
		huh.NewGroup(
			huh.NewInput().
				Title("Node.js version").
				Value(&a.runtime).
				Validate(validation.ValidateRuntimeVersion),
			huh.NewInput().
				Title("Frappe branch").
				Value(&a.branch).
				Validate(validation.ValidateBranch),
			huh.NewInput().
				Title("Apps").
				Description("Comma-separated, installed in this order").
				Value(&a.apps).
				Validate(validateAppList),
		),

		// Preset
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Preset").
				Options(presetOptions...).
				Value(&a.preset),
		),
	)

	if err := form.RunWithContext(cmd.Context()); err != nil {
		return config.Config{}, fmt.Errorf("wizard canceled: %w", err)
	}

	return defaults.With(func(c *config.Config) {
		c.SiteName = a.site
		c.SystemUser = a.user
		c.DBType = a.dbType
		c.DBHost = a.dbHost
		c.RuntimeVersion = a.runtime
		c.FrappeBranch = a.branch
		c.Apps = parseApps(a.apps, a.branch)
		c.Preset = a.preset
	}), nil
}

func validateAppList(list string) error {
	for _, app := range parseApps(list, "") {
		if err := validation.ValidateAppName(app.Name); err != nil {
			return err
		}
	}
	return nil
}
