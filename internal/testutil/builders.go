package testutil

import (
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/benchup/internal/domain/config"
)

// ConfigBuilder builds configurations for tests, starting from the defaults.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a builder seeded with config.Default().
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: config.Default()}
}

// WithSite sets the site name.
func (b *ConfigBuilder) WithSite(name string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) { c.SiteName = name })
	return b
}

// WithUser sets the system user.
func (b *ConfigBuilder) WithUser(name string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) { c.SystemUser = name })
	return b
}

// WithPreset selects a preset and clears explicit steps.
func (b *ConfigBuilder) WithPreset(preset string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) {
		c.Preset = preset
		c.Steps = nil
	})
	return b
}

// WithSteps selects catalog entries explicitly.
func (b *ConfigBuilder) WithSteps(steps ...string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) { c.Steps = steps })
	return b
}

// WithApps replaces the apps; each follows the Frappe branch.
func (b *ConfigBuilder) WithApps(names ...string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) {
		c.Apps = make([]config.App, len(names))
		for i, name := range names {
			c.Apps[i] = config.App{Name: name, Branch: c.FrappeBranch}
		}
	})
	return b
}

// WithDatabase sets the database type and host.
func (b *ConfigBuilder) WithDatabase(dbType, host string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) {
		c.DBType = dbType
		c.DBHost = host
	})
	return b
}

// WithSecrets sets the database root and administrator passwords.
func (b *ConfigBuilder) WithSecrets(dbRoot, admin string) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) {
		c.DBRootPassword = dbRoot
		c.AdminPassword = admin
	})
	return b
}

// WithForce sets the force flag.
func (b *ConfigBuilder) WithForce(force bool) *ConfigBuilder {
	b.cfg = b.cfg.With(func(c *config.Config) { c.Force = force })
	return b
}

// Build returns the constructed configuration.
func (b *ConfigBuilder) Build() config.Config {
	return b.cfg
}

// WriteFile saves the configuration as dir/name. The extension selects
// YAML or TOML.
func (b *ConfigBuilder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := config.Save(path, b.cfg); err != nil {
		t.Fatalf("failed to write config %s: %v", path, err)
	}
	return path
}
