// Package mariadb configures a local MariaDB server for Frappe sites.
package mariadb

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// DefaultConfigPath is the server drop-in written by ConfigureDatabase.
const DefaultConfigPath = "/etc/mysql/mariadb.conf.d/99-frappe.cnf"

// serverSettings are the character set settings Frappe requires, keyed by option group.
var serverSettings = map[string][][2]string{
	"mysqld": {
		{"character-set-client-handshake", "FALSE"},
		{"character-set-server", "utf8mb4"},
		{"collation-server", "utf8mb4_unicode_ci"},
	},
	"mysql": {
		{"default-character-set", "utf8mb4"},
	},
}

// sectionOrder keeps the generated file stable.
var sectionOrder = []string{"mysqld", "mysql"}

// Admin implements ports.DatabaseAdmin for MariaDB.
type Admin struct {
	host       ports.Host
	configPath string
	service    string
	dbHost     string
}

// Option configures an Admin.
type Option func(*Admin)

// WithConfigPath overrides the drop-in location.
func WithConfigPath(path string) Option {
	return func(a *Admin) {
		a.configPath = path
	}
}

// WithServerHost sets the host the root login is verified against.
func WithServerHost(host string) Option {
	return func(a *Admin) {
		if host != "" {
			a.dbHost = host
		}
	}
}

// NewAdmin creates a MariaDB Admin operating on host.
func NewAdmin(host ports.Host, opts ...Option) *Admin {
	a := &Admin{
		host:       host,
		configPath: DefaultConfigPath,
		service:    "mariadb",
		dbHost:     "localhost",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DatabaseConfigured reports whether the drop-in exists with every required setting.
func (a *Admin) DatabaseConfigured(ctx context.Context, ec ports.ExecContext) (bool, error) {
	result, err := a.host.Run(ctx, ec, "cat", a.configPath)
	if err != nil {
		return false, fmt.Errorf("cat: %w", err)
	}
	if !result.Success() {
		return false, nil
	}

	cfg, err := ini.Load([]byte(result.Stdout))
	if err != nil {
		return false, nil //nolint:nilerr // an unparsable drop-in is rewritten
	}
	for _, name := range sectionOrder {
		section, err := cfg.GetSection(name)
		if err != nil {
			return false, nil //nolint:nilerr // missing group means the drop-in is incomplete
		}
		for _, kv := range serverSettings[name] {
			if section.Key(kv[0]).String() != kv[1] {
				return false, nil
			}
		}
	}
	return true, nil
}

// ConfigureDatabase writes the drop-in and restarts the server.
func (a *Admin) ConfigureDatabase(ctx context.Context, ec ports.ExecContext) error {
	data, err := RenderConfig()
	if err != nil {
		return err
	}
	if err := a.host.WriteFile(ctx, a.configPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.configPath, err)
	}
	_, err = ports.RunChecked(ctx, a.host, ec, "systemctl", "restart", a.service)
	return err
}

// RootLoginWorks tries a password login as the database superuser.
func (a *Admin) RootLoginWorks(ctx context.Context, ec ports.ExecContext, creds ports.DatabaseCredentials) (bool, error) {
	ec = ec.WithEnv("MYSQL_PWD=" + creds.Password)
	return ports.Probe(ctx, a.host, ec, "mysql",
		"--protocol=tcp", "-h", a.dbHost, "-u", creds.User, "-e", "SELECT 1")
}

// SetRootPassword sets the superuser password over the local unix socket,
// which MariaDB authenticates as the OS root account on a fresh install.
func (a *Admin) SetRootPassword(ctx context.Context, ec ports.ExecContext, creds ports.DatabaseCredentials) error {
	stmt := fmt.Sprintf("ALTER USER '%s'@'localhost' IDENTIFIED BY '%s';\nFLUSH PRIVILEGES;\n",
		escapeLiteral(creds.User), escapeLiteral(creds.Password))
	_, err := ports.RunChecked(ctx, a.host, ec.WithStdin(stmt), "mysql", "-u", "root")
	return err
}

// RenderConfig returns the drop-in contents.
func RenderConfig() ([]byte, error) {
	cfg := ini.Empty()
	for _, name := range sectionOrder {
		section, err := cfg.NewSection(name)
		if err != nil {
			return nil, err
		}
		for _, kv := range serverSettings[name] {
			if _, err := section.NewKey(kv[0], kv[1]); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# Managed by benchup\n")
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

var _ ports.DatabaseAdmin = (*Admin)(nil)
