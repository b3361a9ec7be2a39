package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// ToolCall records one adapter operation.
type ToolCall struct {
	Op   string
	Args []string
	Exec ports.ExecContext
}

// Toolchain is a stateful spy implementing ports.ToolAdapter.
// Mutations change an in-memory model of the host so that checks run after
// them observe the new state, which makes re-runs skip completed work.
type Toolchain struct {
	mu       sync.Mutex
	calls    []ToolCall
	failures map[string]error
	noEffect map[string]bool

	Address string

	packages     map[string]bool
	users        map[string]bool
	dbConfigured bool
	rootPassword string
	runtimes     map[string]bool
	yarn         bool
	cli          bool
	benches      map[string]bool
	fetched      map[string]bool
	sites        map[string]bool
	siteApps     map[string]map[string]bool
	schedulers   map[string]bool
	proxy        bool
	processes    bool
}

// NewToolchain creates a spy for a pristine host.
func NewToolchain() *Toolchain {
	return &Toolchain{
		failures:   make(map[string]error),
		noEffect:   make(map[string]bool),
		Address:    "192.0.2.10",
		packages:   make(map[string]bool),
		users:      make(map[string]bool),
		runtimes:   make(map[string]bool),
		benches:    make(map[string]bool),
		fetched:    make(map[string]bool),
		sites:      make(map[string]bool),
		siteApps:   make(map[string]map[string]bool),
		schedulers: make(map[string]bool),
	}
}

// FailOn makes every call of op return err.
func (t *Toolchain) FailOn(op string, err error) *Toolchain {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[op] = err
	return t
}

// NoEffect makes the mutating op report success without changing state.
func (t *Toolchain) NoEffect(op string) *Toolchain {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.noEffect[op] = true
	return t
}

// WithSite marks a site as already existing with the given apps installed.
func (t *Toolchain) WithSite(site string, apps ...string) *Toolchain {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sites[site] = true
	for _, app := range apps {
		t.installApp(app, site)
	}
	return t
}

// WithUser marks an OS account as already existing.
func (t *Toolchain) WithUser(name string) *Toolchain {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[name] = true
	return t
}

// Calls returns every recorded operation in order.
func (t *Toolchain) Calls() []ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ToolCall, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns how often op was called.
func (t *Toolchain) CallCount(op string) int {
	n := 0
	for _, c := range t.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded operation names in order.
func (t *Toolchain) Ops() []string {
	calls := t.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// record logs a call and reports whether the mutation should take effect,
// or the injected failure.
func (t *Toolchain) record(op string, ec ports.ExecContext, args ...string) (bool, error) {
	t.calls = append(t.calls, ToolCall{Op: op, Args: args, Exec: ec})
	if err, ok := t.failures[op]; ok {
		return false, err
	}
	return !t.noEffect[op], nil
}

// MissingPackages implements ports.PackageManager.
func (t *Toolchain) MissingPackages(_ context.Context, ec ports.ExecContext, names []string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.record("MissingPackages", ec, names...); err != nil {
		return nil, err
	}
	var missing []string
	for _, n := range names {
		if !t.packages[n] {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

// InstallPackages implements ports.PackageManager.
func (t *Toolchain) InstallPackages(_ context.Context, ec ports.ExecContext, names []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InstallPackages", ec, names...)
	if apply {
		for _, n := range names {
			t.packages[n] = true
		}
	}
	return err
}

// UserExists implements ports.UserManager.
func (t *Toolchain) UserExists(_ context.Context, ec ports.ExecContext, name string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("UserExists", ec, name)
	return t.users[name], err
}

// CreateUser implements ports.UserManager.
func (t *Toolchain) CreateUser(_ context.Context, ec ports.ExecContext, name string, _ ports.UserOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("CreateUser", ec, name)
	if apply {
		t.users[name] = true
	}
	return err
}

// DatabaseConfigured implements ports.DatabaseAdmin.
func (t *Toolchain) DatabaseConfigured(_ context.Context, ec ports.ExecContext) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("DatabaseConfigured", ec)
	return t.dbConfigured, err
}

// ConfigureDatabase implements ports.DatabaseAdmin.
func (t *Toolchain) ConfigureDatabase(_ context.Context, ec ports.ExecContext) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("ConfigureDatabase", ec)
	if apply {
		t.dbConfigured = true
	}
	return err
}

// RootLoginWorks implements ports.DatabaseAdmin.
func (t *Toolchain) RootLoginWorks(_ context.Context, ec ports.ExecContext, creds ports.DatabaseCredentials) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("RootLoginWorks", ec, creds.User)
	return t.rootPassword != "" && t.rootPassword == creds.Password, err
}

// SetRootPassword implements ports.DatabaseAdmin.
func (t *Toolchain) SetRootPassword(_ context.Context, ec ports.ExecContext, creds ports.DatabaseCredentials) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("SetRootPassword", ec, creds.User)
	if apply {
		t.rootPassword = creds.Password
	}
	return err
}

// RuntimeInstalled implements ports.RuntimeManager.
func (t *Toolchain) RuntimeInstalled(_ context.Context, ec ports.ExecContext, version string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("RuntimeInstalled", ec, version)
	return t.runtimes[version], err
}

// InstallRuntime implements ports.RuntimeManager.
func (t *Toolchain) InstallRuntime(_ context.Context, ec ports.ExecContext, version string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InstallRuntime", ec, version)
	if apply {
		t.runtimes[version] = true
	}
	return err
}

// PackageRunnerInstalled implements ports.RuntimeManager.
func (t *Toolchain) PackageRunnerInstalled(_ context.Context, ec ports.ExecContext) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("PackageRunnerInstalled", ec)
	return t.yarn, err
}

// InstallPackageRunner implements ports.RuntimeManager.
func (t *Toolchain) InstallPackageRunner(_ context.Context, ec ports.ExecContext) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InstallPackageRunner", ec)
	if apply {
		t.yarn = true
	}
	return err
}

// CLIInstalled implements ports.BenchCLI.
func (t *Toolchain) CLIInstalled(_ context.Context, ec ports.ExecContext) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("CLIInstalled", ec)
	return t.cli, err
}

// InstallCLI implements ports.BenchCLI.
func (t *Toolchain) InstallCLI(_ context.Context, ec ports.ExecContext) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InstallCLI", ec)
	if apply {
		t.cli = true
	}
	return err
}

// BenchInitialized implements ports.BenchCLI.
func (t *Toolchain) BenchInitialized(_ context.Context, ec ports.ExecContext, folder string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("BenchInitialized", ec, folder)
	return t.benches[folder], err
}

// InitBench implements ports.BenchCLI.
func (t *Toolchain) InitBench(_ context.Context, ec ports.ExecContext, opts ports.InitOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InitBench", ec, opts.Folder, opts.FrappeBranch)
	if apply {
		t.benches[opts.Folder] = true
	}
	return err
}

// AppFetched implements ports.BenchCLI.
func (t *Toolchain) AppFetched(_ context.Context, ec ports.ExecContext, app string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("AppFetched", ec, app)
	return t.fetched[app], err
}

// FetchApp implements ports.BenchCLI.
func (t *Toolchain) FetchApp(_ context.Context, ec ports.ExecContext, app ports.AppSource) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("FetchApp", ec, app.Name, app.Branch)
	if apply {
		t.fetched[app.Name] = true
	}
	return err
}

// SiteExists implements ports.BenchCLI.
func (t *Toolchain) SiteExists(_ context.Context, ec ports.ExecContext, site string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("SiteExists", ec, site)
	return t.sites[site], err
}

// CreateSite implements ports.BenchCLI.
func (t *Toolchain) CreateSite(_ context.Context, ec ports.ExecContext, site string, _ ports.SiteOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("CreateSite", ec, site)
	if apply {
		t.sites[site] = true
		t.installApp("frappe", site)
	}
	return err
}

// DropSite implements ports.BenchCLI.
func (t *Toolchain) DropSite(_ context.Context, ec ports.ExecContext, site string, _ ports.DropOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("DropSite", ec, site)
	if apply {
		delete(t.sites, site)
		delete(t.siteApps, site)
		delete(t.schedulers, site)
	}
	return err
}

// AppInstalledOnSite implements ports.BenchCLI.
func (t *Toolchain) AppInstalledOnSite(_ context.Context, ec ports.ExecContext, app, site string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("AppInstalledOnSite", ec, app, site)
	return t.siteApps[site][app], err
}

// InstallAppOnSite implements ports.BenchCLI.
func (t *Toolchain) InstallAppOnSite(_ context.Context, ec ports.ExecContext, app, site string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("InstallAppOnSite", ec, app, site)
	if apply {
		t.installApp(app, site)
	}
	return err
}

// SchedulerEnabled implements ports.BenchCLI.
func (t *Toolchain) SchedulerEnabled(_ context.Context, ec ports.ExecContext, site string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("SchedulerEnabled", ec, site)
	return t.schedulers[site], err
}

// EnableScheduler implements ports.BenchCLI.
func (t *Toolchain) EnableScheduler(_ context.Context, ec ports.ExecContext, site string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("EnableScheduler", ec, site)
	if apply {
		t.schedulers[site] = true
	}
	return err
}

// ReverseProxyConfigured implements ports.ProductionServer.
func (t *Toolchain) ReverseProxyConfigured(_ context.Context, ec ports.ExecContext, folder string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("ReverseProxyConfigured", ec, folder)
	return t.proxy, err
}

// ConfigureReverseProxy implements ports.ProductionServer.
func (t *Toolchain) ConfigureReverseProxy(_ context.Context, ec ports.ExecContext, user string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("ConfigureReverseProxy", ec, user)
	if apply {
		t.proxy = true
	}
	return err
}

// ProcessesRunning implements ports.ProductionServer.
func (t *Toolchain) ProcessesRunning(_ context.Context, ec ports.ExecContext, folder string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("ProcessesRunning", ec, folder)
	return t.processes, err
}

// ReloadProcessSupervisor implements ports.ProductionServer.
func (t *Toolchain) ReloadProcessSupervisor(_ context.Context, ec ports.ExecContext, folder string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply, err := t.record("ReloadProcessSupervisor", ec, folder)
	if apply {
		t.processes = true
	}
	return err
}

// PrimaryAddress implements ports.HostInfo.
func (t *Toolchain) PrimaryAddress(_ context.Context, ec ports.ExecContext) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.record("PrimaryAddress", ec)
	if err != nil {
		return "", err
	}
	return t.Address, nil
}

func (t *Toolchain) installApp(app, site string) {
	if t.siteApps[site] == nil {
		t.siteApps[site] = make(map[string]bool)
	}
	t.siteApps[site][app] = true
}

var _ ports.ToolAdapter = (*Toolchain)(nil)
