package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/benchup/internal/adapters/command"
	"github.com/felixgeelhaar/benchup/internal/adapters/logging"
	"github.com/felixgeelhaar/benchup/internal/adapters/remote"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/toolchain"
)

// target is the host a command provisions.
type target struct {
	host   ports.Host
	remote bool
	close  func() error
}

// connectTarget opens the target host selected by the global flags.
// Tests replace it to run against mocks.
var connectTarget = func(ctx context.Context, logger ports.Logger) (*target, error) {
	if isLocalHost(targetHost) {
		return &target{
			host:  command.NewRealRunner().WithLogger(logger),
			close: func() error { return nil },
		}, nil
	}

	host, err := remote.Dial(ctx, remote.Config{
		Host:         targetHost,
		Port:         sshPort,
		User:         sshUser,
		IdentityFile: sshKey,
		Sudo:         true,
	})
	if err != nil {
		return nil, err
	}
	return &target{
		host:   host.WithLogger(logger),
		remote: true,
		close:  host.Close,
	}, nil
}

// newToolAdapter builds the adapter every step goes through.
var newToolAdapter = func(t *target, cfg config.Config, logger ports.Logger) ports.ToolAdapter {
	return toolchain.New(t.host, toolchain.Options{
		DBType: cfg.DBType,
		DBHost: cfg.DBHost,
		DBPort: cfg.EffectiveDBPort(),
		Remote: t.remote,
		Logger: logger,
	})
}

func isLocalHost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// newLogger builds the logger for a run. Secrets are masked in every entry.
func newLogger(secrets []string) ports.Logger {
	// --log-level was validated before the command ran.
	level, _ := ports.ParseLevel(logLevel)
	if verbose {
		level = ports.LevelDebug
	}
	jsonFormat := logFormat == "json" || (logFormat == "" && !isTerminal(os.Stderr))

	return logging.NewConsoleLogger(
		logging.WithOutput(os.Stderr),
		logging.WithLevel(level),
		logging.WithJSONFormat(jsonFormat),
		logging.WithSecrets(secrets...),
	)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
