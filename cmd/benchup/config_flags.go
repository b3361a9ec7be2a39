package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/domain/config"
)

// configFlags are the configuration overrides shared by install, plan and explain.
type configFlags struct {
	path           string
	preset         string
	site           string
	user           string
	workdir        string
	dbType         string
	dbHost         string
	dbPort         int
	runtimeVersion string
	frappeBranch   string
	apps           string
	force          bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.path, "config", "c", "", "config file, YAML or TOML (default: "+config.DefaultFileName+" if present)")
	fs.StringVar(&f.preset, "preset", "", "preset: production, development, site or host")
	fs.StringVar(&f.site, "site", "", "site name")
	fs.StringVar(&f.user, "user", "", "system user that owns the bench")
	fs.StringVar(&f.workdir, "workdir", "", "bench folder, relative to the user's home or absolute")
	fs.StringVar(&f.dbType, "db-type", "", "database: mariadb or postgres")
	fs.StringVar(&f.dbHost, "db-host", "", "database host")
	fs.IntVar(&f.dbPort, "db-port", 0, "database port")
	fs.StringVar(&f.runtimeVersion, "runtime-version", "", "Node.js version")
	fs.StringVar(&f.frappeBranch, "frappe-branch", "", "Frappe branch, also used for the apps")
	fs.StringVar(&f.apps, "apps", "", "comma-separated apps to install, in order")
	fs.BoolVar(&f.force, "force", false, "drop and recreate an existing site")

	_ = cmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = cmd.RegisterFlagCompletionFunc("db-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DBMariaDB, config.DBPostgres}, cobra.ShellCompDirectiveNoFileComp
	})
}

// load reads the config file, applies secrets from the environment and then
// the flags that were set on the command line.
func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	path := f.path
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		} else if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.WithEnv(os.LookupEnv)

	changed := cmd.Flags().Changed
	return cfg.With(func(c *config.Config) {
		setIf(changed("preset"), &c.Preset, f.preset)
		setIf(changed("site"), &c.SiteName, f.site)
		setIf(changed("user"), &c.SystemUser, f.user)
		setIf(changed("workdir"), &c.WorkingFolder, f.workdir)
		setIf(changed("db-type"), &c.DBType, f.dbType)
		setIf(changed("db-host"), &c.DBHost, f.dbHost)
		setIf(changed("runtime-version"), &c.RuntimeVersion, f.runtimeVersion)
		setIf(changed("frappe-branch"), &c.FrappeBranch, f.frappeBranch)
		if changed("preset") {
			c.Steps = nil
		}
		if changed("db-port") {
			c.DBPort = f.dbPort
		}
		if changed("apps") {
			c.Apps = parseApps(f.apps, c.FrappeBranch)
		}
		if changed("force") {
			c.Force = f.force
		}
	}), nil
}

func setIf(changed bool, field *string, value string) {
	if changed {
		*field = value
	}
}

// parseApps turns "erpnext,hrms" into apps on branch.
func parseApps(list, branch string) []config.App {
	apps := []config.App{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		apps = append(apps, config.App{Name: name, Branch: branch})
	}
	return apps
}
