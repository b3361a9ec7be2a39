package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
)

func testConfig() config.Config {
	return config.Default().With(func(c *config.Config) {
		c.AdminPassword = "admin-secret"
		c.DBRootPassword = "root-secret"
		c.SystemUserPassword = "user-secret"
	})
}

func stepIDs(steps []compiler.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID().String()
	}
	return ids
}

func depsOf(t *testing.T, steps []compiler.Step, id string) []string {
	t.Helper()
	for _, s := range steps {
		if s.ID().String() == id {
			deps := make([]string, 0, len(s.DependsOn()))
			for _, d := range s.DependsOn() {
				deps = append(deps, d.String())
			}
			return deps
		}
	}
	t.Fatalf("step %s not built", id)
	return nil
}

func TestCatalog_Register(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	require.NoError(t, c.Register(Entry{Name: "a"}))
	require.NoError(t, c.Register(Entry{Name: "b", Requires: []string{"a"}}))

	assert.Error(t, c.Register(Entry{Name: "a"}), "duplicate")
	assert.Error(t, c.Register(Entry{Name: "c", Requires: []string{"missing"}}), "unknown requirement")
	assert.Error(t, c.Register(Entry{}), "no name")
	assert.Equal(t, []string{"a", "b"}, c.Names())
}

func TestCatalog_Closure(t *testing.T) {
	t.Parallel()

	names, err := Default().Closure([]string{EntryRuntime})
	require.NoError(t, err)
	assert.Equal(t, []string{EntryPackages, EntrySystemUser, EntryRuntime}, names)

	names, err = Default().Closure([]string{EntryScheduler, EntryPackages})
	require.NoError(t, err)
	assert.NotContains(t, names, EntryProductionSetup)
	assert.Equal(t, EntryPackages, names[0])
	assert.Equal(t, EntryScheduler, names[len(names)-1])

	names, err = Default().Closure([]string{EntryRuntime}, EntryPackages, EntrySystemUser)
	require.NoError(t, err)
	assert.Equal(t, []string{EntryRuntime}, names)

	names, err = Default().Closure([]string{EntryPackages}, EntryPackages)
	require.NoError(t, err)
	assert.Equal(t, []string{EntryPackages}, names, "a target is built even when assumed")

	_, err = Default().Closure([]string{EntryRuntime}, "nginx")
	assert.ErrorIs(t, err, &compiler.StepError{Kind: compiler.KindInvalidConfiguration})

	_, err = Default().Closure([]string{"nginx"})
	kind, ok := compiler.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, compiler.KindInvalidConfiguration, kind)
}

func TestDefaultCatalog_ProductionStepIDs(t *testing.T) {
	t.Parallel()

	steps, err := Build(testConfig(), mocks.NewToolchain())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"system:packages",
		"system:user:frappe",
		"database:server:mariadb",
		"database:root-password",
		"runtime:node:18",
		"runtime:yarn",
		"bench:cli",
		"bench:init:frappe-bench",
		"bench:app:erpnext",
		"bench:app:hrms",
		"site:create:site1.local",
		"site:app:site1.local:erpnext",
		"site:app:site1.local:hrms",
		"site:scheduler:site1.local",
		"production:setup:frappe",
		"production:supervisor",
	}, stepIDs(steps))

	for _, s := range steps {
		assert.NotEmpty(t, s.Explain(compiler.NewExplainContext()).Summary(), s.ID().String())
	}
}

func TestDefaultCatalog_Dependencies(t *testing.T) {
	t.Parallel()

	steps, err := Build(testConfig(), mocks.NewToolchain())
	require.NoError(t, err)

	assert.Empty(t, depsOf(t, steps, "system:packages"))
	assert.ElementsMatch(t, []string{"runtime:yarn", "bench:cli"}, depsOf(t, steps, "bench:init:frappe-bench"))
	assert.ElementsMatch(t, []string{"bench:init:frappe-bench"}, depsOf(t, steps, "bench:app:erpnext"))
	assert.ElementsMatch(t, []string{"bench:app:erpnext", "bench:init:frappe-bench"}, depsOf(t, steps, "bench:app:hrms"))
	assert.ElementsMatch(t, []string{"bench:init:frappe-bench", "database:root-password"}, depsOf(t, steps, "site:create:site1.local"))
	assert.ElementsMatch(t,
		[]string{"site:create:site1.local", "bench:app:erpnext", "bench:app:hrms", "site:app:site1.local:erpnext"},
		depsOf(t, steps, "site:app:site1.local:hrms"))
	assert.ElementsMatch(t, []string{"site:scheduler:site1.local"}, depsOf(t, steps, "production:setup:frappe"))

	graph, err := compiler.BuildStepGraph(steps)
	require.NoError(t, err)
	_, err = graph.TopologicalSort()
	assert.NoError(t, err)
}

func TestPresets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preset   string
		contains []string
		excludes []string
	}{
		{
			preset:   "production",
			contains: []string{"production:setup:frappe", "production:supervisor"},
		},
		{
			preset:   "development",
			contains: []string{"site:scheduler:site1.local"},
			excludes: []string{"production:setup:frappe", "production:supervisor"},
		},
		{
			preset:   "site",
			contains: []string{"bench:app:hrms", "site:create:site1.local", "site:app:site1.local:hrms", "site:scheduler:site1.local"},
			excludes: []string{
				"system:packages", "system:user:frappe", "database:server:mariadb", "database:root-password",
				"runtime:node:18", "runtime:yarn", "bench:cli", "bench:init:frappe-bench", "production:supervisor",
			},
		},
		{
			preset:   "host",
			contains: []string{"system:packages", "runtime:yarn", "bench:cli"},
			excludes: []string{"bench:init:frappe-bench", "database:server:mariadb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig().With(func(c *config.Config) { c.Preset = tt.preset })
			steps, err := Build(cfg, mocks.NewToolchain())
			require.NoError(t, err)
			ids := stepIDs(steps)
			for _, id := range tt.contains {
				assert.Contains(t, ids, id)
			}
			for _, id := range tt.excludes {
				assert.NotContains(t, ids, id)
			}
		})
	}

	_, ok := PresetByName("production")
	assert.True(t, ok)
	assert.Equal(t, []string{"development", "host", "production", "site"}, PresetNames())
}

func TestPresets_SiteIsSubsetOfDevelopment(t *testing.T) {
	t.Parallel()

	site, err := Build(testConfig().With(func(c *config.Config) { c.Preset = "site" }), mocks.NewToolchain())
	require.NoError(t, err)
	dev, err := Build(testConfig().With(func(c *config.Config) { c.Preset = "development" }), mocks.NewToolchain())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bench:app:erpnext",
		"bench:app:hrms",
		"site:create:site1.local",
		"site:app:site1.local:erpnext",
		"site:app:site1.local:hrms",
		"site:scheduler:site1.local",
	}, stepIDs(site))
	assert.Less(t, len(site), len(dev))

	assert.Empty(t, depsOf(t, site, "bench:app:erpnext"), "the existing bench is not waited for")
	assert.Empty(t, depsOf(t, site, "site:create:site1.local"))

	graph, err := compiler.BuildStepGraph(site)
	require.NoError(t, err)
	_, err = graph.TopologicalSort()
	assert.NoError(t, err)
}

func TestSelection_ExplicitStepsAssumeNothing(t *testing.T) {
	t.Parallel()

	sel, err := Selection(testConfig().With(func(c *config.Config) {
		c.Preset = "site"
		c.Steps = []string{EntryCreateSite}
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{EntryCreateSite}, sel.Targets)
	assert.Empty(t, sel.Assumes)
}

func TestPresets_ReturnsCopies(t *testing.T) {
	t.Parallel()

	p := Presets()
	p[0].Targets[0] = "mutated"
	site, _ := PresetByName("site")
	site.Assumes[0] = "mutated"

	again, _ := PresetByName(p[0].Name)
	assert.NotEqual(t, "mutated", again.Targets[0])
	site, _ = PresetByName("site")
	assert.NotEqual(t, "mutated", site.Assumes[0])
}

func TestBuild_ExplicitSteps(t *testing.T) {
	t.Parallel()

	cfg := testConfig().With(func(c *config.Config) { c.Steps = []string{EntryBenchCLI} })
	steps, err := Build(cfg, mocks.NewToolchain())
	require.NoError(t, err)
	assert.Equal(t, []string{"system:packages", "bench:cli"}, stepIDs(steps))
}

func TestBuild_UnknownPreset(t *testing.T) {
	t.Parallel()

	cfg := testConfig().With(func(c *config.Config) { c.Preset = "staging" })
	_, err := Build(cfg, mocks.NewToolchain())
	require.Error(t, err)
	assert.ErrorIs(t, err, &compiler.StepError{Kind: compiler.KindInvalidConfiguration})
	assert.Contains(t, err.Error(), "staging")
}

func TestBuild_RemoteDatabaseSkipsServerConfiguration(t *testing.T) {
	t.Parallel()

	cfg := testConfig().With(func(c *config.Config) { c.DBHost = "db.internal" })
	steps, err := Build(cfg, mocks.NewToolchain())
	require.NoError(t, err)

	ids := stepIDs(steps)
	assert.NotContains(t, ids, "database:server:mariadb")
	assert.Contains(t, ids, "database:root-password")
	assert.Equal(t, []string{"system:packages"}, depsOf(t, steps, "database:root-password"))
}

func TestBuild_PostgresStepID(t *testing.T) {
	t.Parallel()

	cfg := testConfig().With(func(c *config.Config) { c.DBType = config.DBPostgres })
	steps, err := Build(cfg, mocks.NewToolchain())
	require.NoError(t, err)
	assert.Contains(t, stepIDs(steps), "database:server:postgres")
}

func TestBuild_AbsoluteWorkingFolder(t *testing.T) {
	t.Parallel()

	cfg := testConfig().With(func(c *config.Config) { c.WorkingFolder = "/srv/erp-bench" })
	steps, err := Build(cfg, mocks.NewToolchain())
	require.NoError(t, err)
	assert.Contains(t, stepIDs(steps), "bench:init:erp-bench")
}
