// Package config holds the provisioning configuration: a plain value that is
// loaded once, overridden from the environment and flags, validated, and then
// only read.
package config

import (
	"path"
	"slices"
	"strings"
)

// Database types.
const (
	DBMariaDB  = "mariadb"
	DBPostgres = "postgres"
)

// Default values.
const (
	DefaultSiteName       = "site1.local"
	DefaultSystemUser     = "frappe"
	DefaultWorkingFolder  = "frappe-bench"
	DefaultRuntimeVersion = "18"
	DefaultFrappeBranch   = "version-15"
	DefaultPreset         = "production"
	DefaultDBHost         = "localhost"
)

// Environment variables that supply secrets.
const (
	EnvSystemUserPassword = "BENCHUP_SYSTEM_USER_PASSWORD"
	EnvDBRootPassword     = "BENCHUP_DB_ROOT_PASSWORD"
	EnvAdminPassword      = "BENCHUP_ADMIN_PASSWORD"
)

// basePackages are needed by bench regardless of the database.
var basePackages = []string{
	"git", "curl", "cron", "python3-dev", "python3-pip", "python3-setuptools", "python3-venv",
	"redis-server", "xvfb", "libfontconfig1", "wkhtmltopdf", "nginx", "supervisor",
}

var databasePackages = map[string][]string{
	DBMariaDB:  {"mariadb-server", "mariadb-client", "libmysqlclient-dev", "pkg-config"},
	DBPostgres: {"postgresql", "postgresql-contrib", "libpq-dev"},
}

// App is an application fetched into the bench and installed on the site.
type App struct {
	Name   string `yaml:"name" toml:"name"`
	Branch string `yaml:"branch,omitempty" toml:"branch,omitempty"`
	Repo   string `yaml:"repo,omitempty" toml:"repo,omitempty"`
}

// Config is the provisioning configuration.
type Config struct {
	SiteName           string   `yaml:"site_name" toml:"site_name"`
	SystemUser         string   `yaml:"system_user" toml:"system_user"`
	SystemUserPassword string   `yaml:"system_user_password,omitempty" toml:"system_user_password,omitempty"`
	DBType             string   `yaml:"db_type" toml:"db_type"`
	DBHost             string   `yaml:"db_host" toml:"db_host"`
	DBPort             int      `yaml:"db_port,omitempty" toml:"db_port,omitempty"`
	DBRootUser         string   `yaml:"db_root_user,omitempty" toml:"db_root_user,omitempty"`
	DBRootPassword     string   `yaml:"db_root_password,omitempty" toml:"db_root_password,omitempty"`
	AdminPassword      string   `yaml:"admin_password,omitempty" toml:"admin_password,omitempty"`
	WorkingFolder      string   `yaml:"working_folder" toml:"working_folder"`
	RuntimeVersion     string   `yaml:"runtime_version" toml:"runtime_version"`
	FrappeBranch       string   `yaml:"frappe_branch" toml:"frappe_branch"`
	Apps               []App    `yaml:"apps" toml:"apps"`
	Packages           []string `yaml:"packages,omitempty" toml:"packages,omitempty"`
	Force              bool     `yaml:"force,omitempty" toml:"force,omitempty"`
	Preset             string   `yaml:"preset" toml:"preset"`
	Steps              []string `yaml:"steps,omitempty" toml:"steps,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SiteName:       DefaultSiteName,
		SystemUser:     DefaultSystemUser,
		DBType:         DBMariaDB,
		DBHost:         DefaultDBHost,
		WorkingFolder:  DefaultWorkingFolder,
		RuntimeVersion: DefaultRuntimeVersion,
		FrappeBranch:   DefaultFrappeBranch,
		Apps: []App{
			{Name: "erpnext", Branch: DefaultFrappeBranch},
			{Name: "hrms", Branch: DefaultFrappeBranch},
		},
		Preset: DefaultPreset,
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.Apps = slices.Clone(c.Apps)
	c.Packages = slices.Clone(c.Packages)
	c.Steps = slices.Clone(c.Steps)
	return c
}

// With returns a copy with fn applied.
func (c Config) With(fn func(*Config)) Config {
	next := c.Clone()
	fn(&next)
	return next
}

// WithEnv returns a copy with secrets taken from the environment where set.
func (c Config) WithEnv(lookup func(string) (string, bool)) Config {
	return c.With(func(next *Config) {
		if v, ok := lookup(EnvSystemUserPassword); ok && v != "" {
			next.SystemUserPassword = v
		}
		if v, ok := lookup(EnvDBRootPassword); ok && v != "" {
			next.DBRootPassword = v
		}
		if v, ok := lookup(EnvAdminPassword); ok && v != "" {
			next.AdminPassword = v
		}
	})
}

// EffectiveDBPort returns the configured port or the database default.
func (c Config) EffectiveDBPort() int {
	if c.DBPort != 0 {
		return c.DBPort
	}
	if c.DBType == DBPostgres {
		return 5432
	}
	return 3306
}

// EffectiveDBRootUser returns the configured superuser or the database default.
func (c Config) EffectiveDBRootUser() string {
	if c.DBRootUser != "" {
		return c.DBRootUser
	}
	if c.DBType == DBPostgres {
		return "postgres"
	}
	return "root"
}

// EffectivePackages returns the configured packages, or the defaults for the database type.
func (c Config) EffectivePackages() []string {
	if len(c.Packages) > 0 {
		return slices.Clone(c.Packages)
	}
	pkgs := slices.Clone(basePackages)
	return append(pkgs, databasePackages[c.DBType]...)
}

// HomeDir returns the system user's home directory.
func (c Config) HomeDir() string {
	return path.Join("/home", c.SystemUser)
}

// BenchPath returns the absolute bench directory.
func (c Config) BenchPath() string {
	if strings.HasPrefix(c.WorkingFolder, "/") {
		return path.Clean(c.WorkingFolder)
	}
	return path.Join(c.HomeDir(), c.WorkingFolder)
}

// AppNames returns the configured app names in install order.
func (c Config) AppNames() []string {
	names := make([]string, len(c.Apps))
	for i, app := range c.Apps {
		names[i] = app.Name
	}
	return names
}

// Secrets returns the non-empty secret values, for log redaction.
func (c Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.SystemUserPassword, c.DBRootPassword, c.AdminPassword} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WithoutSecrets returns a copy with every secret cleared.
func (c Config) WithoutSecrets() Config {
	return c.With(func(next *Config) {
		next.SystemUserPassword = ""
		next.DBRootPassword = ""
		next.AdminPassword = ""
	})
}
