// Package command provides command execution adapters for the local host.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// RealRunner executes commands on the local machine.
// Commands with ExecContext.User set are run through sudo as that user.
type RealRunner struct {
	logger ports.Logger
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// WithLogger returns a RealRunner that logs every command at debug level.
func (r *RealRunner) WithLogger(logger ports.Logger) *RealRunner {
	return &RealRunner{logger: logger}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, ec ports.ExecContext, command string, args ...string) (ports.CommandResult, error) {
	name, argv := BuildArgv(ec, command, args...)
	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Dir = ec.Dir
	if ec.User == "" && len(ec.Env) > 0 {
		cmd.Env = append(os.Environ(), ec.Env...)
	}
	if ec.Stdin != "" {
		cmd.Stdin = strings.NewReader(ec.Stdin)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.logger != nil {
		r.logger.Debug(ctx, "exec",
			ports.F("cmd", ports.CommandCall{Command: command, Args: args}.String()),
			ports.F("user", ec.User),
			ports.F("dir", ec.Dir))
	}

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// WriteFile writes data to path, creating parent directories.
func (r *RealRunner) WriteFile(_ context.Context, path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// BuildArgv returns the program and arguments that run command under ec.
// Running as another user goes through "sudo -n -u USER -H", and extra
// environment is passed with env(1) because sudo resets the environment.
func BuildArgv(ec ports.ExecContext, command string, args ...string) (string, []string) {
	if ec.User == "" {
		return command, args
	}
	argv := []string{"-n", "-u", ec.User, "-H"}
	if len(ec.Env) > 0 {
		argv = append(argv, "env")
		argv = append(argv, ec.Env...)
	}
	argv = append(argv, command)
	argv = append(argv, args...)
	return "sudo", argv
}

// Ensure RealRunner implements ports.Host.
var _ ports.Host = (*RealRunner)(nil)
