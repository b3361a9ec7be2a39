package ports

import "context"

// UserOptions configures a new OS account.
type UserOptions struct {
	Password string
	Groups   []string
	Shell    string
}

// DatabaseCredentials identifies the database superuser.
type DatabaseCredentials struct {
	User     string
	Password string
}

// InitOptions configures a new bench directory.
type InitOptions struct {
	Folder       string
	FrappeBranch string
}

// AppSource names an application to fetch into the bench.
type AppSource struct {
	Name   string
	Branch string
	Repo   string // optional; defaults to the app name, which bench resolves
}

// SiteOptions configures a new site.
type SiteOptions struct {
	AdminPassword string
	DBType        string
	DBHost        string
	DBPort        int
	Root          DatabaseCredentials
}

// DropOptions configures site removal.
type DropOptions struct {
	Root  DatabaseCredentials
	Force bool
}

// PackageManager installs OS packages.
type PackageManager interface {
	// MissingPackages returns the subset of names that are not installed.
	MissingPackages(ctx context.Context, ec ExecContext, names []string) ([]string, error)
	InstallPackages(ctx context.Context, ec ExecContext, names []string) error
}

// UserManager manages OS accounts.
type UserManager interface {
	UserExists(ctx context.Context, ec ExecContext, name string) (bool, error)
	CreateUser(ctx context.Context, ec ExecContext, name string, opts UserOptions) error
}

// DatabaseAdmin configures the database server.
type DatabaseAdmin interface {
	DatabaseConfigured(ctx context.Context, ec ExecContext) (bool, error)
	ConfigureDatabase(ctx context.Context, ec ExecContext) error
	RootLoginWorks(ctx context.Context, ec ExecContext, creds DatabaseCredentials) (bool, error)
	SetRootPassword(ctx context.Context, ec ExecContext, creds DatabaseCredentials) error
}

// RuntimeManager manages the JavaScript runtime and its package runner.
type RuntimeManager interface {
	RuntimeInstalled(ctx context.Context, ec ExecContext, version string) (bool, error)
	InstallRuntime(ctx context.Context, ec ExecContext, version string) error
	PackageRunnerInstalled(ctx context.Context, ec ExecContext) (bool, error)
	InstallPackageRunner(ctx context.Context, ec ExecContext) error
}

// BenchCLI drives the application management CLI.
type BenchCLI interface {
	CLIInstalled(ctx context.Context, ec ExecContext) (bool, error)
	InstallCLI(ctx context.Context, ec ExecContext) error
	BenchInitialized(ctx context.Context, ec ExecContext, folder string) (bool, error)
	InitBench(ctx context.Context, ec ExecContext, opts InitOptions) error
	AppFetched(ctx context.Context, ec ExecContext, app string) (bool, error)
	FetchApp(ctx context.Context, ec ExecContext, app AppSource) error
	SiteExists(ctx context.Context, ec ExecContext, site string) (bool, error)
	CreateSite(ctx context.Context, ec ExecContext, site string, opts SiteOptions) error
	DropSite(ctx context.Context, ec ExecContext, site string, opts DropOptions) error
	AppInstalledOnSite(ctx context.Context, ec ExecContext, app, site string) (bool, error)
	InstallAppOnSite(ctx context.Context, ec ExecContext, app, site string) error
	SchedulerEnabled(ctx context.Context, ec ExecContext, site string) (bool, error)
	EnableScheduler(ctx context.Context, ec ExecContext, site string) error
}

// ProductionServer manages the reverse proxy and the process supervisor.
type ProductionServer interface {
	ReverseProxyConfigured(ctx context.Context, ec ExecContext, folder string) (bool, error)
	ConfigureReverseProxy(ctx context.Context, ec ExecContext, user string) error
	ProcessesRunning(ctx context.Context, ec ExecContext, folder string) (bool, error)
	ReloadProcessSupervisor(ctx context.Context, ec ExecContext, folder string) error
}

// HostInfo reports facts about the target host.
type HostInfo interface {
	PrimaryAddress(ctx context.Context, ec ExecContext) (string, error)
}

// ToolAdapter is the whole surface through which steps touch the host.
type ToolAdapter interface {
	PackageManager
	UserManager
	DatabaseAdmin
	RuntimeManager
	BenchCLI
	ProductionServer
	HostInfo
}
