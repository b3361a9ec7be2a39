// Package apt installs Debian/Ubuntu packages with dpkg-query and apt-get.
package apt

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/retry"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

// nonInteractive keeps debconf from prompting (tzdata, mariadb-server).
const nonInteractive = "DEBIAN_FRONTEND=noninteractive"

// Manager implements ports.PackageManager.
type Manager struct {
	runner     ports.CommandRunner
	logger     ports.Logger
	retryDelay time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for retry notices.
func WithLogger(logger ports.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRetryDelay sets the wait before re-running a failed index refresh.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.retryDelay = d
	}
}

// NewManager creates an apt Manager.
func NewManager(runner ports.CommandRunner, opts ...Option) *Manager {
	m := &Manager{
		runner:     runner,
		retryDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MissingPackages returns the requested packages dpkg does not report as installed,
// in request order.
func (m *Manager) MissingPackages(ctx context.Context, ec ports.ExecContext, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	args := append([]string{"-W", "-f=${Package}\t${db:Status-Status}\n"}, names...)
	result, err := m.runner.Run(ctx, ec, "dpkg-query", args...)
	if err != nil {
		return nil, fmt.Errorf("dpkg-query: %w", err)
	}
	// dpkg-query exits 1 when any package is unknown and still lists the others.
	if result.ExitCode > 1 {
		return nil, ports.NewToolError("dpkg-query", result)
	}

	installed := parseInstalled(result.Stdout)
	var missing []string
	for _, name := range names {
		if !installed[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// InstallPackages refreshes the package index and installs names.
func (m *Manager) InstallPackages(ctx context.Context, ec ports.ExecContext, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, name := range names {
		if err := validation.ValidatePackageName(name); err != nil {
			return err
		}
	}

	ec = ec.WithEnv(nonInteractive)

	err := retry.Do(ctx, func(ctx context.Context) error {
		_, err := ports.RunChecked(ctx, m.runner, ec, "apt-get", "update", "-q")
		return err
	},
		retry.Attempts(3),
		retry.InitialDelay(m.retryDelay),
		retry.OnRetry(func(attempt int, err error, wait time.Duration) {
			if m.logger != nil {
				m.logger.Warn(ctx, "package index refresh failed, retrying",
					ports.F("attempt", attempt), ports.Err(err), ports.F("wait", wait.String()))
			}
		}),
	)
	if err != nil {
		return err
	}

	args := append([]string{"install", "-y", "-q", "--no-install-recommends"}, names...)
	_, err = ports.RunChecked(ctx, m.runner, ec, "apt-get", args...)
	return err
}

func parseInstalled(out string) map[string]bool {
	installed := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) == 2 && strings.TrimSpace(fields[1]) == "installed" {
			// Multi-arch packages are listed as name:arch.
			name, _, _ := strings.Cut(fields[0], ":")
			installed[fields[0]] = true
			installed[name] = true
		}
	}
	return installed
}

var _ ports.PackageManager = (*Manager)(nil)
