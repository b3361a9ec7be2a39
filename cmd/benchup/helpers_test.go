package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
)

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so commands do not see
// values from a previous execution.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// fakeTarget routes the CLI to a host whose "id -u" prints uid and whose
// tools are tc.
func fakeTarget(t *testing.T, uid string, tc *mocks.Toolchain) *mocks.CommandRunner {
	t.Helper()

	runner := mocks.NewCommandRunner()
	runner.AddResult("id", []string{"-u"}, ports.CommandResult{Stdout: uid + "\n"})

	origConnect, origTools := connectTarget, newToolAdapter
	connectTarget = func(context.Context, ports.Logger) (*target, error) {
		return &target{host: runner, close: func() error { return nil }}, nil
	}
	newToolAdapter = func(*target, config.Config, ports.Logger) ports.ToolAdapter {
		return tc
	}
	t.Cleanup(func() {
		connectTarget, newToolAdapter = origConnect, origTools
	})
	return runner
}

func withSecrets(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAdminPassword, "admin-secret")
	t.Setenv(config.EnvDBRootPassword, "root-secret")
}
