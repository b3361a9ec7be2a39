// Package postgres configures a PostgreSQL server for Frappe sites.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// SQLSTATE codes returned for rejected logins.
const (
	codeInvalidPassword          = "28P01"
	codeInvalidAuthorizationSpec = "28000"
)

// Verifier checks superuser credentials against the server.
type Verifier func(ctx context.Context, creds ports.DatabaseCredentials) (bool, error)

// Admin implements ports.DatabaseAdmin for PostgreSQL.
type Admin struct {
	runner  ports.CommandRunner
	service string
	osUser  string
	host    string
	port    int
	verify  Verifier
}

// Option configures an Admin.
type Option func(*Admin)

// WithServer sets the address the root login is verified against.
func WithServer(host string, port int) Option {
	return func(a *Admin) {
		if host != "" {
			a.host = host
		}
		if port != 0 {
			a.port = port
		}
	}
}

// WithVerifier replaces the login check, e.g. with PsqlVerifier for remote hosts.
func WithVerifier(v Verifier) Option {
	return func(a *Admin) {
		a.verify = v
	}
}

// NewAdmin creates a PostgreSQL Admin. Logins are verified with a direct
// pgx connection unless WithVerifier says otherwise.
func NewAdmin(runner ports.CommandRunner, opts ...Option) *Admin {
	a := &Admin{
		runner:  runner,
		service: "postgresql",
		osUser:  "postgres",
		host:    "localhost",
		port:    5432,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.verify == nil {
		a.verify = a.connect
	}
	return a
}

// DatabaseConfigured reports whether the server unit is active.
func (a *Admin) DatabaseConfigured(ctx context.Context, ec ports.ExecContext) (bool, error) {
	result, err := a.runner.Run(ctx, ec, "systemctl", "is-active", "--quiet", a.service)
	if err != nil {
		return false, fmt.Errorf("systemctl: %w", err)
	}
	return result.Success(), nil
}

// ConfigureDatabase enables and starts the server unit.
func (a *Admin) ConfigureDatabase(ctx context.Context, ec ports.ExecContext) error {
	_, err := ports.RunChecked(ctx, a.runner, ec, "systemctl", "enable", "--now", a.service)
	return err
}

// RootLoginWorks reports whether creds authenticate as the superuser.
func (a *Admin) RootLoginWorks(ctx context.Context, _ ports.ExecContext, creds ports.DatabaseCredentials) (bool, error) {
	return a.verify(ctx, creds)
}

// SetRootPassword sets the superuser password through peer authentication
// as the postgres OS account.
func (a *Admin) SetRootPassword(ctx context.Context, ec ports.ExecContext, creds ports.DatabaseCredentials) error {
	stmt := fmt.Sprintf("ALTER USER %s WITH PASSWORD %s;\n", quoteIdent(creds.User), quoteLiteral(creds.Password))
	_, err := ports.RunChecked(ctx, a.runner, ec.AsUser(a.osUser).WithStdin(stmt),
		"psql", "-v", "ON_ERROR_STOP=1", "-q")
	return err
}

// ConnString returns a URL for the maintenance database.
func ConnString(host string, port int, creds ports.DatabaseCredentials) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(creds.User, creds.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/postgres",
		RawQuery: "sslmode=prefer&connect_timeout=5",
	}
	return u.String()
}

func (a *Admin) connect(ctx context.Context, creds ports.DatabaseCredentials) (bool, error) {
	conn, err := pgx.Connect(ctx, ConnString(a.host, a.port, creds))
	if err != nil {
		if IsAuthFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("connect to %s:%d: %w", a.host, a.port, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		return false, fmt.Errorf("ping %s:%d: %w", a.host, a.port, err)
	}
	return true, nil
}

// PsqlVerifier checks the login by running psql on the target host.
func PsqlVerifier(runner ports.CommandRunner, host string, port int) Verifier {
	return func(ctx context.Context, creds ports.DatabaseCredentials) (bool, error) {
		ec := ports.ExecContext{}.WithEnv("PGPASSWORD=" + creds.Password)
		result, err := runner.Run(ctx, ec, "psql",
			"-h", host, "-p", strconv.Itoa(port), "-U", creds.User, "-d", "postgres",
			"-w", "-tAc", "SELECT 1")
		if err != nil {
			return false, fmt.Errorf("psql: %w", err)
		}
		if result.Success() {
			return true, nil
		}
		if strings.Contains(result.Stderr, "authentication failed") || strings.Contains(result.Stderr, "no password supplied") {
			return false, nil
		}
		return false, ports.NewToolError("psql", result)
	}
}

// IsAuthFailure reports whether err is the server rejecting the credentials.
func IsAuthFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeInvalidPassword || pgErr.Code == codeInvalidAuthorizationSpec
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var _ ports.DatabaseAdmin = (*Admin)(nil)
