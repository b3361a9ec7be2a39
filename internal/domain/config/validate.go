package config

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/benchup/internal/validation"
)

var errRequired = errors.New("is required")

// Validate checks every field and reports all problems at once as an *ErrorList.
// Secrets are only required when requireSecrets is set, so a configuration
// can be inspected before they are supplied.
func (c Config) Validate(requireSecrets bool) error {
	errs := NewErrorList()

	if err := validation.ValidateSiteName(c.SiteName); err != nil {
		errs.AddInvalid("site_name", err, "Use a DNS name such as erp.example.com or site1.local.")
	}
	if err := validation.ValidateUsername(c.SystemUser); err != nil {
		errs.AddInvalid("system_user", err, "Use a lowercase account name other than root, such as frappe.")
	}
	if c.DBType != DBMariaDB && c.DBType != DBPostgres {
		errs.AddInvalid("db_type", fmt.Errorf("unsupported database %q", c.DBType), "Use mariadb or postgres.")
	}
	if err := validation.ValidateHostname(c.DBHost); err != nil {
		errs.AddInvalid("db_host", err, "Use localhost or the database server's host name.")
	}
	if c.DBPort != 0 {
		if err := validation.ValidatePort(c.DBPort); err != nil {
			errs.AddInvalid("db_port", err, "Leave db_port empty to use the database default.")
		}
	}
	if c.DBRootUser != "" && c.DBRootUser != "root" {
		if err := validation.ValidateUsername(c.DBRootUser); err != nil {
			errs.AddInvalid("db_root_user", err, "Use the database superuser name, such as root or postgres.")
		}
	}
	if err := validation.ValidatePath(c.BenchPath()); err != nil {
		errs.AddInvalid("working_folder", err, "Use a folder name or an absolute path without spaces.")
	}
	if err := validation.ValidateRuntimeVersion(c.RuntimeVersion); err != nil {
		errs.AddInvalid("runtime_version", err, "Use a Node.js version such as 18 or 20.11.")
	}
	if err := validation.ValidateBranch(c.FrappeBranch); err != nil {
		errs.AddInvalid("frappe_branch", err, "Use a branch name such as version-15.")
	}

	seen := make(map[string]bool)
	for i, app := range c.Apps {
		field := fmt.Sprintf("apps[%d]", i)
		if err := validation.ValidateAppName(app.Name); err != nil {
			errs.AddInvalid(field+".name", err, "App names are Python package names such as erpnext or hrms.")
		}
		if err := validation.ValidateBranch(app.Branch); err != nil {
			errs.AddInvalid(field+".branch", err, "Use a branch name such as version-15.")
		}
		if err := validation.ValidateRepo(app.Repo); err != nil {
			errs.AddInvalid(field+".repo", err, "Use an HTTPS or SSH git URL.")
		}
		if seen[app.Name] {
			errs.AddInvalid(field+".name", fmt.Errorf("app %q is listed twice", app.Name), "List each app once.")
		}
		seen[app.Name] = true
	}

	for i, pkg := range c.Packages {
		if err := validation.ValidatePackageName(pkg); err != nil {
			errs.AddInvalid(fmt.Sprintf("packages[%d]", i), err, "Use Debian package names such as redis-server.")
		}
	}

	if c.Preset == "" && len(c.Steps) == 0 {
		errs.AddInvalid("preset", errRequired, "Set preset to production, development, site or host, or list steps explicitly.")
	}

	for _, s := range []struct {
		field, value, env string
		required          bool
	}{
		{"system_user_password", c.SystemUserPassword, EnvSystemUserPassword, false},
		{"db_root_password", c.DBRootPassword, EnvDBRootPassword, true},
		{"admin_password", c.AdminPassword, EnvAdminPassword, true},
	} {
		if s.value == "" {
			if requireSecrets && s.required {
				errs.AddInvalid(s.field, errRequired, fmt.Sprintf("Set it in the configuration file or via %s.", s.env))
			}
			continue
		}
		if err := validation.ValidateSecret(s.value); err != nil {
			errs.AddInvalid(s.field, err, "Secrets must be a single line.")
		}
	}

	return errs.AsError()
}
