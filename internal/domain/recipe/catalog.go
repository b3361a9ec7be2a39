package recipe

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

// Catalog entry names.
const (
	EntryPackages             = "packages"
	EntrySystemUser           = "system-user"
	EntryDatabaseServer       = "database-server"
	EntryDatabaseRootPassword = "database-root-password"
	EntryRuntime              = "runtime"
	EntryPackageRunner        = "package-runner"
	EntryBenchCLI             = "bench-cli"
	EntryBenchInit            = "bench-init"
	EntryFetchApps            = "fetch-apps"
	EntryCreateSite           = "create-site"
	EntryInstallApps          = "install-apps"
	EntryScheduler            = "scheduler"
	EntryProductionSetup      = "production-setup"
	EntryProcessSupervisor    = "process-supervisor"
)

// Groups the system user is added to.
var userGroups = []string{"sudo"}

// Entry is a named unit of the catalog that produces zero or more steps.
type Entry struct {
	Name     string
	Summary  string
	Requires []string
	build    func(b *builder) []*compiler.FuncStep
}

// Catalog is an ordered registry of entries. Registration order is the
// canonical order in which steps are produced.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Register adds an entry. Requirements must already be registered.
func (c *Catalog) Register(e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Name == "" {
		return fmt.Errorf("catalog entry has no name")
	}
	if _, exists := c.entries[e.Name]; exists {
		return fmt.Errorf("catalog entry %q already registered", e.Name)
	}
	for _, req := range e.Requires {
		if _, ok := c.entries[req]; !ok {
			return fmt.Errorf("catalog entry %q requires unknown entry %q", e.Name, req)
		}
	}
	c.entries[e.Name] = e
	c.order = append(c.order, e.Name)
	return nil
}

// Get returns the entry with the given name.
func (c *Catalog) Get(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns entry names in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Closure returns the targets plus everything they transitively require,
// in catalog order. Assumed entries are treated as already provisioned: the
// walk stops at them unless they are targets themselves. Unknown names are an
// INVALID_CONFIGURATION error.
func (c *Catalog) Closure(targets []string, assumed ...string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, name := range assumed {
		if _, ok := c.entries[name]; !ok {
			return nil, unknownEntryError(name, c.order)
		}
	}
	skip := make(map[string]bool, len(assumed))
	for _, name := range assumed {
		skip[name] = !slices.Contains(targets, name)
	}

	selected := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if selected[name] || skip[name] {
			return nil
		}
		e, ok := c.entries[name]
		if !ok {
			return unknownEntryError(name, c.order)
		}
		selected[name] = true
		for _, req := range e.Requires {
			if err := visit(req); err != nil {
				return err
			}
		}
		return nil
	}
	for _, t := range targets {
		if err := visit(t); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(selected))
	for _, name := range c.order {
		if selected[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Build produces the steps for the given targets and their requirements.
// Each step depends on every step produced by the entries its entry requires;
// entries producing no steps pass their own requirements through. Assumed
// entries produce nothing and are not waited for.
func (c *Catalog) Build(cfg config.Config, tools ports.ToolAdapter, targets []string, assumed ...string) ([]compiler.Step, error) {
	names, err := c.Closure(targets, assumed...)
	if err != nil {
		return nil, err
	}

	b := newBuilder(cfg, tools)
	produced := make(map[string][]compiler.StepID, len(names))
	var steps []compiler.Step

	for _, name := range names {
		e, _ := c.Get(name)

		var deps []compiler.StepID
		for _, req := range e.Requires {
			deps = append(deps, produced[req]...)
		}

		built := e.build(b)
		if len(built) == 0 {
			produced[name] = deps
			continue
		}

		ids := make([]compiler.StepID, 0, len(built))
		for _, s := range built {
			s = s.WithDependsOn(deps...)
			steps = append(steps, s)
			ids = append(ids, s.ID())
		}
		produced[name] = ids
	}

	return steps, nil
}

func unknownEntryError(name string, known []string) *compiler.StepError {
	return compiler.NewStepError(compiler.KindInvalidConfiguration, fmt.Sprintf("unknown catalog entry %q", name)).
		WithSuggestion("Known entries: " + strings.Join(known, ", "))
}

// Preset is a named set of target entries. Assumes lists entries the preset
// expects to be provisioned already; they are left out of the build.
type Preset struct {
	Name        string
	Description string
	Targets     []string
	Assumes     []string
}

var presets = []Preset{
	{
		Name:        "production",
		Description: "Full install served by nginx and supervisor on port 80",
		Targets:     []string{EntryProcessSupervisor},
	},
	{
		Name:        "development",
		Description: "Bench, site and apps without the production web server",
		Targets:     []string{EntryScheduler},
	},
	{
		Name:        "site",
		Description: "Create the site and install apps on an existing bench",
		Targets:     []string{EntryCreateSite, EntryInstallApps, EntryScheduler},
		Assumes: []string{
			EntryPackages, EntrySystemUser, EntryDatabaseServer, EntryDatabaseRootPassword,
			EntryRuntime, EntryPackageRunner, EntryBenchCLI, EntryBenchInit,
		},
	},
	{
		Name:        "host",
		Description: "Prepare the host: packages, user, Node.js, yarn and bench",
		Targets:     []string{EntryPackages, EntrySystemUser, EntryRuntime, EntryPackageRunner, EntryBenchCLI},
	},
}

// Presets returns the built-in presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p
		out[i].Targets = slices.Clone(p.Targets)
		out[i].Assumes = slices.Clone(p.Assumes)
	}
	return out
}

// PresetByName returns the preset with the given name.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames returns the preset names in alphabetical order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Selection returns the entries selected by the configuration: the explicit
// step list when set, the preset otherwise. An explicit list assumes nothing.
func Selection(cfg config.Config) (Preset, error) {
	if len(cfg.Steps) > 0 {
		return Preset{Name: "custom", Targets: slices.Clone(cfg.Steps)}, nil
	}
	p, ok := PresetByName(cfg.Preset)
	if !ok {
		return Preset{}, compiler.NewStepError(compiler.KindInvalidConfiguration, fmt.Sprintf("unknown preset %q", cfg.Preset)).
			WithSuggestion("Known presets: " + strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog()
		for _, e := range builtinEntries() {
			if err := defaultCatalog.Register(e); err != nil {
				panic(fmt.Sprintf("recipe: %v", err))
			}
		}
	})
	return defaultCatalog
}

// Build produces the steps selected by cfg from the built-in catalog.
func Build(cfg config.Config, tools ports.ToolAdapter) ([]compiler.Step, error) {
	sel, err := Selection(cfg)
	if err != nil {
		return nil, err
	}
	return Default().Build(cfg, tools, sel.Targets, sel.Assumes...)
}

// builder carries the configuration and the execution contexts shared by
// every entry of one build.
type builder struct {
	cfg   config.Config
	tools ports.ToolAdapter

	root      ports.ExecContext // root, default directory
	user      ports.ExecContext // system user in its home
	bench     ports.ExecContext // system user in the bench
	rootBench ports.ExecContext // root in the bench
}

func newBuilder(cfg config.Config, tools ports.ToolAdapter) *builder {
	root := ports.ExecContext{}
	return &builder{
		cfg:       cfg,
		tools:     tools,
		root:      root,
		user:      root.AsUser(cfg.SystemUser).InDir(cfg.HomeDir()),
		bench:     root.AsUser(cfg.SystemUser).InDir(cfg.BenchPath()),
		rootBench: root.InDir(cfg.BenchPath()),
	}
}

func (b *builder) rootCredentials() ports.DatabaseCredentials {
	return ports.DatabaseCredentials{User: b.cfg.EffectiveDBRootUser(), Password: b.cfg.DBRootPassword}
}

func (b *builder) siteOptions() ports.SiteOptions {
	return ports.SiteOptions{
		AdminPassword: b.cfg.AdminPassword,
		DBType:        b.cfg.DBType,
		DBHost:        b.cfg.DBHost,
		DBPort:        b.cfg.EffectiveDBPort(),
		Root:          b.rootCredentials(),
	}
}

// localDatabase reports whether the database server runs on the target host.
func (b *builder) localDatabase() bool {
	switch b.cfg.DBHost {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func one(s *compiler.FuncStep) []*compiler.FuncStep {
	return []*compiler.FuncStep{s}
}

// chain makes every step depend on its predecessor.
func chain(steps []*compiler.FuncStep) []*compiler.FuncStep {
	for i := 1; i < len(steps); i++ {
		steps[i] = steps[i].WithDependsOn(steps[i-1].ID())
	}
	return steps
}

func builtinEntries() []Entry {
	return []Entry{
		{
			Name:    EntryPackages,
			Summary: "Install OS packages for bench and the database",
			build: func(b *builder) []*compiler.FuncStep {
				return one(Packages(b.tools, b.root, b.cfg.EffectivePackages()))
			},
		},
		{
			Name:     EntrySystemUser,
			Summary:  "Create the OS account that owns the bench",
			Requires: []string{EntryPackages},
			build: func(b *builder) []*compiler.FuncStep {
				return one(SystemUser(b.tools, b.root, b.cfg.SystemUser, ports.UserOptions{
					Password: b.cfg.SystemUserPassword,
					Groups:   userGroups,
					Shell:    "/bin/bash",
				}))
			},
		},
		{
			Name:     EntryDatabaseServer,
			Summary:  "Configure the local database server",
			Requires: []string{EntryPackages},
			build: func(b *builder) []*compiler.FuncStep {
				if !b.localDatabase() {
					return nil
				}
				return one(DatabaseServer(b.tools, b.root, b.cfg.DBType))
			},
		},
		{
			Name:     EntryDatabaseRootPassword,
			Summary:  "Set the database superuser password",
			Requires: []string{EntryDatabaseServer},
			build: func(b *builder) []*compiler.FuncStep {
				return one(DatabaseRootPassword(b.tools, b.root, b.rootCredentials()))
			},
		},
		{
			Name:     EntryRuntime,
			Summary:  "Install Node.js for the system user",
			Requires: []string{EntrySystemUser},
			build: func(b *builder) []*compiler.FuncStep {
				return one(Runtime(b.tools, b.user, b.cfg.RuntimeVersion))
			},
		},
		{
			Name:     EntryPackageRunner,
			Summary:  "Install yarn",
			Requires: []string{EntryRuntime},
			build: func(b *builder) []*compiler.FuncStep {
				return one(PackageRunner(b.tools, b.user))
			},
		},
		{
			Name:     EntryBenchCLI,
			Summary:  "Install the bench CLI",
			Requires: []string{EntryPackages},
			build: func(b *builder) []*compiler.FuncStep {
				return one(BenchCLI(b.tools, b.root))
			},
		},
		{
			Name:     EntryBenchInit,
			Summary:  "Initialize the bench directory",
			Requires: []string{EntryBenchCLI, EntryPackageRunner},
			build: func(b *builder) []*compiler.FuncStep {
				return one(BenchInit(b.tools, b.user, ports.InitOptions{
					Folder:       b.cfg.BenchPath(),
					FrappeBranch: b.cfg.FrappeBranch,
				}))
			},
		},
		{
			Name:     EntryFetchApps,
			Summary:  "Fetch the configured apps into the bench",
			Requires: []string{EntryBenchInit},
			build: func(b *builder) []*compiler.FuncStep {
				steps := make([]*compiler.FuncStep, 0, len(b.cfg.Apps))
				for _, app := range b.cfg.Apps {
					steps = append(steps, FetchApp(b.tools, b.bench, ports.AppSource{
						Name:   app.Name,
						Branch: app.Branch,
						Repo:   app.Repo,
					}))
				}
				return chain(steps)
			},
		},
		{
			Name:     EntryCreateSite,
			Summary:  "Create the site and its database",
			Requires: []string{EntryBenchInit, EntryDatabaseRootPassword},
			build: func(b *builder) []*compiler.FuncStep {
				return one(CreateSite(b.tools, b.bench, b.cfg.SiteName, b.siteOptions(), b.cfg.Force))
			},
		},
		{
			Name:     EntryInstallApps,
			Summary:  "Install the apps on the site in order",
			Requires: []string{EntryCreateSite, EntryFetchApps},
			build: func(b *builder) []*compiler.FuncStep {
				steps := make([]*compiler.FuncStep, 0, len(b.cfg.Apps))
				for _, app := range b.cfg.Apps {
					steps = append(steps, InstallApp(b.tools, b.bench, app.Name, b.cfg.SiteName))
				}
				return chain(steps)
			},
		},
		{
			Name:     EntryScheduler,
			Summary:  "Enable the site scheduler",
			Requires: []string{EntryInstallApps},
			build: func(b *builder) []*compiler.FuncStep {
				return one(Scheduler(b.tools, b.bench, b.cfg.SiteName))
			},
		},
		{
			Name:     EntryProductionSetup,
			Summary:  "Configure nginx and supervisor",
			Requires: []string{EntryScheduler},
			build: func(b *builder) []*compiler.FuncStep {
				return one(ProductionSetup(b.tools, b.rootBench, b.cfg.SystemUser, b.cfg.BenchPath()))
			},
		},
		{
			Name:     EntryProcessSupervisor,
			Summary:  "Start the bench processes under supervisor",
			Requires: []string{EntryProductionSetup},
			build: func(b *builder) []*compiler.FuncStep {
				return one(ProcessSupervisor(b.tools, b.root, b.cfg.BenchPath()))
			},
		},
	}
}
