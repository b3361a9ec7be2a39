// Package recipe turns a configuration into provisioning steps: each step
// pairs a precondition and a postcondition query with one mutating adapter
// call, so running it twice is harmless.
package recipe

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

func stepID(segments ...string) compiler.StepID {
	id, err := compiler.JoinStepID(segments...)
	if err != nil {
		panic(fmt.Sprintf("recipe: invalid step id %v: %v", segments, err))
	}
	return id
}

// Packages installs the OS packages bench and the database need.
func Packages(tools ports.PackageManager, ec ports.ExecContext, names []string) *compiler.FuncStep {
	pkgs := append([]string(nil), names...)
	return compiler.NewFuncStep(
		stepID("system", "packages"),
		func(rc compiler.RunContext) (bool, error) {
			missing, err := tools.MissingPackages(rc.Context(), ec, pkgs)
			return len(missing) == 0, err
		},
		func(rc compiler.RunContext) error {
			missing, err := tools.MissingPackages(rc.Context(), ec, pkgs)
			if err != nil {
				return err
			}
			return tools.InstallPackages(rc.Context(), ec, missing)
		},
	).WithExplanation(compiler.NewExplanation(
		"Install system packages",
		fmt.Sprintf("Installs %d packages needed by bench, the database and the web server with apt-get.", len(pkgs)),
		[]string{"https://frappeframework.com/docs/user/en/installation"},
	).WithTools("dpkg-query", "apt-get"))
}

// SystemUser creates the OS account that owns the bench.
func SystemUser(tools ports.UserManager, ec ports.ExecContext, name string, opts ports.UserOptions) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("system", "user", name),
		func(rc compiler.RunContext) (bool, error) {
			return tools.UserExists(rc.Context(), ec, name)
		},
		func(rc compiler.RunContext) error {
			return tools.CreateUser(rc.Context(), ec, name, opts)
		},
	).WithExplanation(compiler.NewExplanation(
		"Create system user",
		fmt.Sprintf("Creates the %s account with a home directory the web server can traverse and adds it to %v.", name, opts.Groups),
		nil,
	).WithTools("id", "adduser", "chpasswd", "usermod"))
}

// DatabaseServer writes the database server configuration Frappe requires.
func DatabaseServer(tools ports.DatabaseAdmin, ec ports.ExecContext, dbType string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("database", "server", dbType),
		func(rc compiler.RunContext) (bool, error) {
			return tools.DatabaseConfigured(rc.Context(), ec)
		},
		func(rc compiler.RunContext) error {
			return tools.ConfigureDatabase(rc.Context(), ec)
		},
	).WithExplanation(compiler.NewExplanation(
		"Configure database server",
		fmt.Sprintf("Prepares the %s server for Frappe (utf8mb4 character set for MariaDB, a running service for PostgreSQL).", dbType),
		nil,
	).WithTools("systemctl"))
}

// DatabaseRootPassword makes the superuser accept the configured password.
func DatabaseRootPassword(tools ports.DatabaseAdmin, ec ports.ExecContext, creds ports.DatabaseCredentials) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("database", "root-password"),
		func(rc compiler.RunContext) (bool, error) {
			return tools.RootLoginWorks(rc.Context(), ec, creds)
		},
		func(rc compiler.RunContext) error {
			return tools.SetRootPassword(rc.Context(), ec, creds)
		},
	).WithExplanation(compiler.NewExplanation(
		"Set database root password",
		fmt.Sprintf("Sets the password of the %s superuser so bench can create site databases.", creds.User),
		nil,
	).WithTools("mysql", "psql"))
}

// Runtime installs the Node.js version for the system user.
func Runtime(tools ports.RuntimeManager, ec ports.ExecContext, version string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("runtime", "node", version),
		func(rc compiler.RunContext) (bool, error) {
			return tools.RuntimeInstalled(rc.Context(), ec, version)
		},
		func(rc compiler.RunContext) error {
			return tools.InstallRuntime(rc.Context(), ec, version)
		},
	).WithExplanation(compiler.NewExplanation(
		"Install Node.js",
		fmt.Sprintf("Installs Node.js %s with nvm for %s and makes it the default.", version, ec.User),
		[]string{"https://github.com/nvm-sh/nvm"},
	).WithTools("nvm", "curl"))
}

// PackageRunner installs yarn into the system user's Node.js.
func PackageRunner(tools ports.RuntimeManager, ec ports.ExecContext) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("runtime", "yarn"),
		func(rc compiler.RunContext) (bool, error) {
			return tools.PackageRunnerInstalled(rc.Context(), ec)
		},
		func(rc compiler.RunContext) error {
			return tools.InstallPackageRunner(rc.Context(), ec)
		},
	).WithExplanation(compiler.NewExplanation(
		"Install yarn",
		"Installs yarn globally with npm; bench uses it to build app assets.",
		nil,
	).WithTools("npm"))
}

// BenchCLI installs the bench command.
func BenchCLI(tools ports.BenchCLI, ec ports.ExecContext) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("bench", "cli"),
		func(rc compiler.RunContext) (bool, error) {
			return tools.CLIInstalled(rc.Context(), ec)
		},
		func(rc compiler.RunContext) error {
			return tools.InstallCLI(rc.Context(), ec)
		},
	).WithExplanation(compiler.NewExplanation(
		"Install bench CLI",
		"Installs the frappe-bench command line tool with pip.",
		[]string{"https://github.com/frappe/bench"},
	).WithTools("pip3"))
}

// BenchInit creates the bench directory with the Frappe framework.
// opts.Folder is the absolute bench path.
func BenchInit(tools ports.BenchCLI, ec ports.ExecContext, opts ports.InitOptions) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("bench", "init", path.Base(opts.Folder)),
		func(rc compiler.RunContext) (bool, error) {
			return tools.BenchInitialized(rc.Context(), ec, opts.Folder)
		},
		func(rc compiler.RunContext) error {
			return tools.InitBench(rc.Context(), ec, opts)
		},
	).WithExplanation(compiler.NewExplanation(
		"Initialize bench",
		fmt.Sprintf("Runs bench init in %s on branch %s.", opts.Folder, opts.FrappeBranch),
		nil,
	).WithTools("bench"))
}

// FetchApp downloads an app into the bench.
func FetchApp(tools ports.BenchCLI, ec ports.ExecContext, app ports.AppSource) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("bench", "app", app.Name),
		func(rc compiler.RunContext) (bool, error) {
			return tools.AppFetched(rc.Context(), ec, app.Name)
		},
		func(rc compiler.RunContext) error {
			return tools.FetchApp(rc.Context(), ec, app)
		},
	).WithExplanation(compiler.NewExplanation(
		"Fetch app",
		fmt.Sprintf("Runs bench get-app for %s.", app.Name),
		nil,
	).WithTools("bench", "git"))
}

// CreateSite creates the site. With force an existing site is dropped and
// recreated; without it an existing site is left untouched.
func CreateSite(tools ports.BenchCLI, ec ports.ExecContext, site string, opts ports.SiteOptions, force bool) *compiler.FuncStep {
	exists := func(rc compiler.RunContext) (bool, error) {
		return tools.SiteExists(rc.Context(), ec, site)
	}

	check := exists
	if force {
		check = func(rc compiler.RunContext) (bool, error) {
			if _, err := exists(rc); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	detail := fmt.Sprintf("Runs bench new-site for %s on %s.", site, dbLabel(opts.DBType))
	if force {
		detail += " The existing site and its database are dropped first."
	}

	return compiler.NewFuncStep(
		stepID("site", "create", site),
		check,
		func(rc compiler.RunContext) error {
			if force {
				found, err := exists(rc)
				if err != nil {
					return err
				}
				if found {
					if err := tools.DropSite(rc.Context(), ec, site, ports.DropOptions{Root: opts.Root, Force: true}); err != nil {
						return err
					}
				}
			}
			return tools.CreateSite(rc.Context(), ec, site, opts)
		},
	).WithVerify(exists).WithExplanation(compiler.NewExplanation(
		"Create site",
		detail,
		[]string{"https://frappeframework.com/docs/user/en/bench/reference/new-site"},
	).WithTools("bench"))
}

// InstallApp installs a fetched app on the site.
func InstallApp(tools ports.BenchCLI, ec ports.ExecContext, app, site string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("site", "app", site, app),
		func(rc compiler.RunContext) (bool, error) {
			return tools.AppInstalledOnSite(rc.Context(), ec, app, site)
		},
		func(rc compiler.RunContext) error {
			return tools.InstallAppOnSite(rc.Context(), ec, app, site)
		},
	).WithExplanation(compiler.NewExplanation(
		"Install app on site",
		fmt.Sprintf("Runs bench install-app %s on %s.", app, site),
		nil,
	).WithTools("bench"))
}

// Scheduler enables background jobs on the site.
func Scheduler(tools ports.BenchCLI, ec ports.ExecContext, site string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("site", "scheduler", site),
		func(rc compiler.RunContext) (bool, error) {
			return tools.SchedulerEnabled(rc.Context(), ec, site)
		},
		func(rc compiler.RunContext) error {
			return tools.EnableScheduler(rc.Context(), ec, site)
		},
	).WithExplanation(compiler.NewExplanation(
		"Enable scheduler",
		fmt.Sprintf("Enables scheduled jobs for %s.", site),
		nil,
	).WithTools("bench"))
}

// ProductionSetup generates and links the nginx and supervisor configuration.
func ProductionSetup(tools ports.ProductionServer, ec ports.ExecContext, user, folder string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("production", "setup", user),
		func(rc compiler.RunContext) (bool, error) {
			return tools.ReverseProxyConfigured(rc.Context(), ec, folder)
		},
		func(rc compiler.RunContext) error {
			return tools.ConfigureReverseProxy(rc.Context(), ec, user)
		},
	).WithExplanation(compiler.NewExplanation(
		"Set up production",
		fmt.Sprintf("Runs bench setup production for %s: nginx serves the site on port 80 and supervisor runs the bench processes.", user),
		[]string{"https://frappeframework.com/docs/user/en/bench/guides/setup-production"},
	).WithTools("bench", "nginx", "supervisorctl"))
}

// ProcessSupervisor reloads supervisor until every bench program runs.
func ProcessSupervisor(tools ports.ProductionServer, ec ports.ExecContext, folder string) *compiler.FuncStep {
	return compiler.NewFuncStep(
		stepID("production", "supervisor"),
		func(rc compiler.RunContext) (bool, error) {
			return tools.ProcessesRunning(rc.Context(), ec, folder)
		},
		func(rc compiler.RunContext) error {
			return tools.ReloadProcessSupervisor(rc.Context(), ec, folder)
		},
	).WithExplanation(compiler.NewExplanation(
		"Start bench processes",
		"Reloads supervisor and waits until the web and worker programs are running.",
		nil,
	).WithTools("supervisorctl"))
}

func dbLabel(dbType string) string {
	if dbType == "" {
		return "mariadb"
	}
	return dbType
}
