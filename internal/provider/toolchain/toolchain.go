// Package toolchain assembles the tool adapters into one ports.ToolAdapter.
package toolchain

import (
	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/apt"
	"github.com/felixgeelhaar/benchup/internal/provider/bench"
	"github.com/felixgeelhaar/benchup/internal/provider/mariadb"
	"github.com/felixgeelhaar/benchup/internal/provider/nvm"
	"github.com/felixgeelhaar/benchup/internal/provider/postgres"
	"github.com/felixgeelhaar/benchup/internal/provider/production"
	"github.com/felixgeelhaar/benchup/internal/provider/system"
)

// Database types.
const (
	DBMariaDB  = "mariadb"
	DBPostgres = "postgres"
)

// Options selects and configures the adapters.
type Options struct {
	DBType string
	DBHost string
	DBPort int
	// Remote means the host is reached over SSH, so database logins are
	// verified on the host instead of from this process.
	Remote bool
	Logger ports.Logger
}

// Toolchain is the ports.ToolAdapter used in production.
type Toolchain struct {
	*apt.Manager
	*system.Users
	ports.DatabaseAdmin
	*nvm.Runtime
	*bench.CLI
	*production.Server
	*system.HostInfo
}

// New builds a Toolchain operating on host.
func New(host ports.Host, opts Options) *Toolchain {
	var aptOpts []apt.Option
	if opts.Logger != nil {
		aptOpts = append(aptOpts, apt.WithLogger(opts.Logger))
	}

	return &Toolchain{
		Manager:       apt.NewManager(host, aptOpts...),
		Users:         system.NewUsers(host),
		DatabaseAdmin: newDatabaseAdmin(host, opts),
		Runtime:       nvm.NewRuntime(host),
		CLI:           bench.NewCLI(host),
		Server:        production.NewServer(host),
		HostInfo:      system.NewHostInfo(host),
	}
}

func newDatabaseAdmin(host ports.Host, opts Options) ports.DatabaseAdmin {
	if opts.DBType == DBPostgres {
		pgOpts := []postgres.Option{postgres.WithServer(opts.DBHost, opts.DBPort)}
		if opts.Remote {
			dbHost, dbPort := opts.DBHost, opts.DBPort
			if dbHost == "" {
				dbHost = "localhost"
			}
			if dbPort == 0 {
				dbPort = 5432
			}
			pgOpts = append(pgOpts, postgres.WithVerifier(postgres.PsqlVerifier(host, dbHost, dbPort)))
		}
		return postgres.NewAdmin(host, pgOpts...)
	}
	return mariadb.NewAdmin(host, mariadb.WithServerHost(opts.DBHost))
}

var _ ports.ToolAdapter = (*Toolchain)(nil)
