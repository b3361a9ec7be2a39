// Package bench drives the Frappe bench CLI.
//
// Site and app operations run inside the bench directory, which callers pass
// as ExecContext.Dir; commands run through the account's runtime environment
// so bench finds node and yarn.
package bench

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/nvm"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

// PipPackage is the distribution that provides the bench command.
const PipPackage = "frappe-bench"

// CLI implements ports.BenchCLI.
type CLI struct {
	runner ports.CommandRunner
}

// NewCLI creates a bench CLI adapter.
func NewCLI(runner ports.CommandRunner) *CLI {
	return &CLI{runner: runner}
}

// CLIInstalled reports whether bench is on PATH.
func (c *CLI) CLIInstalled(ctx context.Context, ec ports.ExecContext) (bool, error) {
	cmd, args := nvm.Shell("command -v bench >/dev/null")
	return ports.Probe(ctx, c.runner, ec, cmd, args...)
}

// InstallCLI installs bench system-wide with pip.
func (c *CLI) InstallCLI(ctx context.Context, ec ports.ExecContext) error {
	_, err := ports.RunChecked(ctx, c.runner, ec, "pip3", "install", "--quiet", PipPackage)
	return err
}

// BenchInitialized reports whether folder holds an initialized bench.
func (c *CLI) BenchInitialized(ctx context.Context, ec ports.ExecContext, folder string) (bool, error) {
	return ports.Probe(ctx, c.runner, ec, "test", "-f", path.Join(folder, "sites", "common_site_config.json"))
}

// InitBench creates a bench in opts.Folder, running from its parent directory.
func (c *CLI) InitBench(ctx context.Context, ec ports.ExecContext, opts ports.InitOptions) error {
	if err := validation.ValidatePath(opts.Folder); err != nil {
		return err
	}
	if err := validation.ValidateBranch(opts.FrappeBranch); err != nil {
		return err
	}

	args := []string{"init"}
	if opts.FrappeBranch != "" {
		args = append(args, "--frappe-branch", opts.FrappeBranch)
	}
	args = append(args, path.Base(opts.Folder))

	return c.bench(ctx, ec.InDir(path.Dir(opts.Folder)), args...)
}

// AppFetched reports whether the app source is present in the bench.
func (c *CLI) AppFetched(ctx context.Context, ec ports.ExecContext, app string) (bool, error) {
	return ports.Probe(ctx, c.runner, ec, "test", "-d", path.Join("apps", app))
}

// FetchApp downloads an app into the bench.
func (c *CLI) FetchApp(ctx context.Context, ec ports.ExecContext, app ports.AppSource) error {
	if err := validation.ValidateAppName(app.Name); err != nil {
		return err
	}
	if err := validation.ValidateBranch(app.Branch); err != nil {
		return err
	}
	if err := validation.ValidateRepo(app.Repo); err != nil {
		return err
	}

	args := []string{"get-app"}
	if app.Branch != "" {
		args = append(args, "--branch", app.Branch)
	}
	source := app.Name
	if app.Repo != "" {
		source = app.Repo
	}
	args = append(args, source)

	return c.bench(ctx, ec, args...)
}

// SiteExists reports whether the site directory has a site config.
func (c *CLI) SiteExists(ctx context.Context, ec ports.ExecContext, site string) (bool, error) {
	return ports.Probe(ctx, c.runner, ec, "test", "-f", path.Join("sites", site, "site_config.json"))
}

// CreateSite creates a site and its database.
func (c *CLI) CreateSite(ctx context.Context, ec ports.ExecContext, site string, opts ports.SiteOptions) error {
	if err := validation.ValidateSiteName(site); err != nil {
		return err
	}

	args := []string{"new-site", site,
		"--admin-password", opts.AdminPassword,
		"--db-root-username", opts.Root.User,
		"--db-root-password", opts.Root.Password,
	}
	if opts.DBType != "" {
		args = append(args, "--db-type", opts.DBType)
	}
	if opts.DBHost != "" {
		args = append(args, "--db-host", opts.DBHost)
	}
	if opts.DBPort != 0 {
		args = append(args, "--db-port", strconv.Itoa(opts.DBPort))
	}

	return c.bench(ctx, ec, args...)
}

// DropSite removes a site and its database without a backup.
func (c *CLI) DropSite(ctx context.Context, ec ports.ExecContext, site string, opts ports.DropOptions) error {
	if err := validation.ValidateSiteName(site); err != nil {
		return err
	}

	args := []string{"drop-site", site,
		"--db-root-username", opts.Root.User,
		"--db-root-password", opts.Root.Password,
		"--no-backup",
	}
	if opts.Force {
		args = append(args, "--force")
	}
	return c.bench(ctx, ec, args...)
}

// AppInstalledOnSite reports whether list-apps shows app on site.
func (c *CLI) AppInstalledOnSite(ctx context.Context, ec ports.ExecContext, app, site string) (bool, error) {
	out, err := c.benchOutput(ctx, ec, "--site", site, "list-apps")
	if err != nil {
		return false, err
	}
	for _, installed := range ParseAppList(out) {
		if installed == app {
			return true, nil
		}
	}
	return false, nil
}

// InstallAppOnSite installs a fetched app on a site.
func (c *CLI) InstallAppOnSite(ctx context.Context, ec ports.ExecContext, app, site string) error {
	if err := validation.ValidateAppName(app); err != nil {
		return err
	}
	return c.bench(ctx, ec, "--site", site, "install-app", app)
}

// SchedulerEnabled reports whether background jobs run for site.
func (c *CLI) SchedulerEnabled(ctx context.Context, ec ports.ExecContext, site string) (bool, error) {
	out, err := c.benchOutput(ctx, ec, "--site", site, "scheduler", "status")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "is enabled"), nil
}

// EnableScheduler turns on background jobs for site.
func (c *CLI) EnableScheduler(ctx context.Context, ec ports.ExecContext, site string) error {
	return c.bench(ctx, ec, "--site", site, "enable-scheduler")
}

// ParseAppList extracts app names from list-apps output, which prints one app
// per line optionally followed by version and branch.
func ParseAppList(out string) []string {
	var apps []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasSuffix(fields[0], ":") {
			continue
		}
		apps = append(apps, fields[0])
	}
	return apps
}

func (c *CLI) bench(ctx context.Context, ec ports.ExecContext, args ...string) error {
	_, err := c.benchOutput(ctx, ec, args...)
	return err
}

func (c *CLI) benchOutput(ctx context.Context, ec ports.ExecContext, args ...string) (string, error) {
	cmd, shellArgs := nvm.Command("bench", args...)
	result, err := c.runner.Run(ctx, ec, cmd, shellArgs...)
	if err != nil {
		return "", fmt.Errorf("bench %s: %w", args[0], err)
	}
	if !result.Success() {
		return "", ports.NewToolError("bench "+firstVerb(args), result)
	}
	return result.Stdout, nil
}

// firstVerb names the bench subcommand for error messages, skipping --site.
func firstVerb(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--site" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

var _ ports.BenchCLI = (*CLI)(nil)
