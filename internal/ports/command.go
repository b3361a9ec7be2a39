// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// ExecContext is the identity and environment a command runs under.
// The zero value runs as the invoking identity in the runner's default directory.
type ExecContext struct {
	User  string   // OS account to run as; empty means the invoking user
	Dir   string   // working directory; empty means the runner default
	Env   []string // extra KEY=VALUE pairs
	Stdin string   // data written to the command's standard input
}

// AsUser returns a copy running as the given account.
func (ec ExecContext) AsUser(user string) ExecContext {
	ec.User = user
	return ec
}

// InDir returns a copy running in the given directory.
func (ec ExecContext) InDir(dir string) ExecContext {
	ec.Dir = dir
	return ec
}

// WithEnv returns a copy with the given KEY=VALUE pairs appended.
func (ec ExecContext) WithEnv(pairs ...string) ExecContext {
	env := make([]string, 0, len(ec.Env)+len(pairs))
	env = append(env, ec.Env...)
	ec.Env = append(env, pairs...)
	return ec
}

// WithStdin returns a copy feeding input to the command.
func (ec ExecContext) WithStdin(input string) ExecContext {
	ec.Stdin = input
	return ec
}

// CommandResult represents the result of executing a command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Exec    ExecContext
}

// String renders the call as a command line.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external commands.
// A non-zero exit is reported in CommandResult, not as an error; the error
// return is reserved for commands that could not be started at all.
type CommandRunner interface {
	Run(ctx context.Context, ec ExecContext, command string, args ...string) (CommandResult, error)
}

// ToolError reports an external tool that exited non-zero.
type ToolError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewToolError creates a ToolError from a finished command.
func NewToolError(command string, result CommandResult) *ToolError {
	return &ToolError{
		Command:  command,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
}

// Error implements error.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

// Diagnostic returns the raw tool output that explains the failure.
func (e *ToolError) Diagnostic() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// RunChecked runs a command and converts a non-zero exit into a *ToolError.
func RunChecked(ctx context.Context, runner CommandRunner, ec ExecContext, command string, args ...string) (CommandResult, error) {
	result, err := runner.Run(ctx, ec, command, args...)
	if err != nil {
		return result, fmt.Errorf("%s: %w", command, err)
	}
	if !result.Success() {
		return result, NewToolError(command, result)
	}
	return result, nil
}

// Probe runs a command whose exit status answers a yes/no question:
// 0 means true, 1 means false, anything else is a *ToolError.
func Probe(ctx context.Context, runner CommandRunner, ec ExecContext, command string, args ...string) (bool, error) {
	result, err := runner.Run(ctx, ec, command, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", command, err)
	}
	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, NewToolError(command, result)
	}
}
