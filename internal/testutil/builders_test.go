package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/domain/config"
)

func TestConfigBuilder(t *testing.T) {
	t.Parallel()

	cfg := NewConfigBuilder().
		WithSite("erp.example.com").
		WithUser("erp").
		WithApps("hrms").
		WithDatabase(config.DBPostgres, "db.internal").
		Build()

	assert.Equal(t, "erp.example.com", cfg.SiteName)
	assert.Equal(t, "erp", cfg.SystemUser)
	assert.Equal(t, []string{"hrms"}, cfg.AppNames())
	assert.Equal(t, cfg.FrappeBranch, cfg.Apps[0].Branch)
	assert.Equal(t, config.DBPostgres, cfg.DBType)
}

func TestConfigBuilder_PresetClearsSteps(t *testing.T) {
	t.Parallel()

	cfg := NewConfigBuilder().WithSteps("packages").WithPreset("site").Build()

	assert.Equal(t, "site", cfg.Preset)
	assert.Empty(t, cfg.Steps)
}

func TestConfigBuilder_DoesNotShareState(t *testing.T) {
	t.Parallel()

	b := NewConfigBuilder().WithApps("erpnext")
	first := b.Build()
	second := b.WithApps("hrms").Build()

	assert.Equal(t, []string{"erpnext"}, first.AppNames())
	assert.Equal(t, []string{"hrms"}, second.AppNames())
}

func TestConfigBuilder_WriteFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"benchup.yaml", "benchup.toml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := NewConfigBuilder().WithSite("erp.local").WithPreset("development").WriteFile(t, t.TempDir(), name)

			cfg, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, "erp.local", cfg.SiteName)
			assert.Equal(t, "development", cfg.Preset)
		})
	}
}
