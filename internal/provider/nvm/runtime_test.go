package nvm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		installed string
		requested string
		want      bool
	}{
		{"v18.19.0", "18", true},
		{"v18.19.0", "v18", true},
		{"v18.19.0", "18.19", true},
		{"v18.19.0", "18.20", false},
		{"v18.19.0", "18.19.0", true},
		{"v20.11.1", "18", false},
		{"v20.11.1", "lts", true},
		{"N/A", "18", false},
		{"", "lts", false},
	}

	for _, tt := range tests {
		t.Run(tt.installed+"_"+tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.installed, tt.requested))
		})
	}
}

func TestShell_LoadsRuntimeEnvironment(t *testing.T) {
	t.Parallel()

	cmd, args := Command("bench", "--site", "erp.local", "list-apps")
	assert.Equal(t, "bash", cmd)
	require.Len(t, args, 2)
	assert.Contains(t, args[1], `. "$NVM_DIR/nvm.sh"`)
	assert.Equal(t, "exec bench --site erp.local list-apps", Script(cmd, args))
}

func TestRuntime_RuntimeInstalled(t *testing.T) {
	t.Parallel()

	cmd, args := Shell("nvm version 18")

	tests := []struct {
		name   string
		result ports.CommandResult
		want   bool
	}{
		{name: "installed", result: ports.CommandResult{Stdout: "v18.19.0\n"}, want: true},
		{name: "other major", result: ports.CommandResult{Stdout: "v16.20.2\n"}, want: false},
		{name: "not installed", result: ports.CommandResult{Stdout: "N/A\n", ExitCode: 3}, want: false},
		{name: "no nvm", result: ports.CommandResult{ExitCode: 127, Stderr: "nvm: command not found"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := mocks.NewCommandRunner()
			runner.AddResult(cmd, args, tt.result)

			got, err := NewRuntime(runner).RuntimeInstalled(context.Background(), ports.ExecContext{}.AsUser("frappe"), "18")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuntime_InstallRuntime(t *testing.T) {
	t.Parallel()

	cmd, args := Shell(`if [ ! -s "$NVM_DIR/nvm.sh" ]; then
  curl -fsSL ` + DefaultInstallerURL + ` | bash || exit 1
  . "$NVM_DIR/nvm.sh"
fi
nvm install 18 && nvm alias default 18`)
	runner := mocks.NewCommandRunner()
	runner.AddResult(cmd, args, ports.CommandResult{})

	err := NewRuntime(runner).InstallRuntime(context.Background(), ports.ExecContext{}.AsUser("frappe"), "18")
	require.NoError(t, err)

	calls := runner.CallsTo("bash")
	require.Len(t, calls, 1)
	assert.Equal(t, "frappe", calls[0].Exec.User)
}

func TestRuntime_InstallRuntime_LTSAlias(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	_ = NewRuntime(runner).InstallRuntime(context.Background(), ports.ExecContext{}, "lts")

	calls := runner.CallsTo("bash")
	require.Len(t, calls, 1)
	assert.Contains(t, Script(calls[0].Command, calls[0].Args), "nvm install 'lts/*'")
}

func TestRuntime_InstallRuntime_RejectsInvalidVersion(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	err := NewRuntime(runner).InstallRuntime(context.Background(), ports.ExecContext{}, "18; rm -rf ~")

	assert.ErrorIs(t, err, validation.ErrInvalidVersion)
	assert.Empty(t, runner.Calls())
}

func TestRuntime_PackageRunner(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	probeCmd, probeArgs := Shell("command -v yarn >/dev/null")
	runner.AddResult(probeCmd, probeArgs, ports.CommandResult{ExitCode: 1})
	installCmd, installArgs := Command("npm", "install", "-g", "yarn")
	runner.AddResult(installCmd, installArgs, ports.CommandResult{})

	r := NewRuntime(runner)
	ok, err := r.PackageRunnerInstalled(context.Background(), ports.ExecContext{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.InstallPackageRunner(context.Background(), ports.ExecContext{}))
}
