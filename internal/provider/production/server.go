// Package production turns a bench into a production deployment served by
// nginx with its processes under supervisor.
package production

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/nvm"
	"github.com/felixgeelhaar/benchup/internal/retry"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

// Config directories bench links its generated files into.
const (
	NginxConfDir      = "/etc/nginx/conf.d"
	SupervisorConfDir = "/etc/supervisor/conf.d"
)

// ErrProcessesDown is returned when supervisor programs never reach RUNNING.
var ErrProcessesDown = errors.New("bench processes are not running")

// Server implements ports.ProductionServer.
type Server struct {
	runner   ports.CommandRunner
	attempts int
	delay    time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithWait sets how often and how long to poll supervisor after a reload.
func WithWait(attempts int, delay time.Duration) Option {
	return func(s *Server) {
		s.attempts = attempts
		s.delay = delay
	}
}

// NewServer creates a production Server.
func NewServer(runner ports.CommandRunner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		attempts: 6,
		delay:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReverseProxyConfigured reports whether bench's nginx and supervisor configs
// are generated and linked into the system directories.
func (s *Server) ReverseProxyConfigured(ctx context.Context, ec ports.ExecContext, folder string) (bool, error) {
	name := path.Base(folder)
	for _, file := range []string{
		path.Join(folder, "config", "nginx.conf"),
		path.Join(NginxConfDir, name+".conf"),
		path.Join(SupervisorConfDir, name+".conf"),
	} {
		ok, err := ports.Probe(ctx, s.runner, ec, "test", "-e", file)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ConfigureReverseProxy runs bench's production setup for user. ec.Dir must be the bench.
func (s *Server) ConfigureReverseProxy(ctx context.Context, ec ports.ExecContext, user string) error {
	if err := validation.ValidateUsername(user); err != nil {
		return err
	}
	cmd, args := nvm.Command("bench", "setup", "production", user, "--yes")
	_, err := ports.RunChecked(ctx, s.runner, ec, cmd, args...)
	return err
}

// ProcessesRunning reports whether every supervisor program of the bench is RUNNING.
func (s *Server) ProcessesRunning(ctx context.Context, ec ports.ExecContext, folder string) (bool, error) {
	result, err := s.runner.Run(ctx, ec, "supervisorctl", "status")
	if err != nil {
		return false, fmt.Errorf("supervisorctl: %w", err)
	}
	// supervisorctl exits 3 when a program is not running and 4 when it cannot connect.
	if result.ExitCode != 0 && result.ExitCode != 3 {
		return false, ports.NewToolError("supervisorctl status", result)
	}
	return AllRunning(result.Stdout, path.Base(folder)), nil
}

// ReloadProcessSupervisor rereads the supervisor configs, restarts the bench
// programs, and waits for them to come up.
func (s *Server) ReloadProcessSupervisor(ctx context.Context, ec ports.ExecContext, folder string) error {
	for _, args := range [][]string{{"reread"}, {"update"}, {"restart", path.Base(folder) + "-web:", path.Base(folder) + "-workers:"}} {
		if _, err := ports.RunChecked(ctx, s.runner, ec, "supervisorctl", args...); err != nil {
			return err
		}
	}

	return retry.Do(ctx, func(ctx context.Context) error {
		ok, err := s.ProcessesRunning(ctx, ec, folder)
		if err != nil {
			return retry.Permanent(err)
		}
		if !ok {
			return ErrProcessesDown
		}
		return nil
	}, retry.Attempts(s.attempts), retry.InitialDelay(s.delay), retry.Multiplier(1))
}

// AllRunning parses supervisorctl status output and reports whether at least
// one program of the named bench exists and all of them are RUNNING.
func AllRunning(status, bench string) bool {
	found := false
	scanner := bufio.NewScanner(strings.NewReader(status))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.HasPrefix(fields[0], bench+"-") {
			continue
		}
		found = true
		if fields[1] != "RUNNING" {
			return false
		}
	}
	return found
}

var _ ports.ProductionServer = (*Server)(nil)
