package apt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/apt"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

var queryArgs = []string{"-W", "-f=${Package}\t${db:Status-Status}\n"}

func TestManager_MissingPackages(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("dpkg-query", append(queryArgs, "git", "redis-server", "libffi-dev:amd64"), ports.CommandResult{
		ExitCode: 1,
		Stdout:   "git\tinstalled\nredis-server\tnot-installed\nlibffi-dev:amd64\tinstalled\n",
		Stderr:   "dpkg-query: no packages found matching redis-server\n",
	})

	missing, err := apt.NewManager(runner).MissingPackages(context.Background(), ports.ExecContext{},
		[]string{"git", "redis-server", "libffi-dev:amd64"})

	require.NoError(t, err)
	assert.Equal(t, []string{"redis-server"}, missing)
}

func TestManager_MissingPackages_Empty(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	missing, err := apt.NewManager(runner).MissingPackages(context.Background(), ports.ExecContext{}, nil)

	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Empty(t, runner.Calls())
}

func TestManager_MissingPackages_ToolError(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("dpkg-query", append(queryArgs, "git"), ports.CommandResult{ExitCode: 2, Stderr: "dpkg: database locked"})

	_, err := apt.NewManager(runner).MissingPackages(context.Background(), ports.ExecContext{}, []string{"git"})

	var toolErr *ports.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "dpkg: database locked", toolErr.Diagnostic())
}

func TestManager_InstallPackages(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"update", "-q"}, ports.CommandResult{})
	runner.AddResult("apt-get", []string{"install", "-y", "-q", "--no-install-recommends", "git", "redis-server"}, ports.CommandResult{})

	err := apt.NewManager(runner).InstallPackages(context.Background(), ports.ExecContext{}, []string{"git", "redis-server"})
	require.NoError(t, err)

	calls := runner.CallsTo("apt-get")
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Contains(t, c.Exec.Env, "DEBIAN_FRONTEND=noninteractive")
	}
}

func TestManager_InstallPackages_RetriesIndexRefresh(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddSequence("apt-get", []string{"update", "-q"},
		ports.CommandResult{ExitCode: 100, Stderr: "Could not get lock /var/lib/apt/lists/lock"},
		ports.CommandResult{},
	)
	runner.AddResult("apt-get", []string{"install", "-y", "-q", "--no-install-recommends", "git"}, ports.CommandResult{})

	err := apt.NewManager(runner, apt.WithRetryDelay(0)).
		InstallPackages(context.Background(), ports.ExecContext{}, []string{"git"})

	require.NoError(t, err)
	assert.Len(t, runner.CallsTo("apt-get"), 3)
}

func TestManager_InstallPackages_InstallFails(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"update", "-q"}, ports.CommandResult{})
	runner.AddResult("apt-get", []string{"install", "-y", "-q", "--no-install-recommends", "nosuchpkg"}, ports.CommandResult{
		ExitCode: 100,
		Stderr:   "E: Unable to locate package nosuchpkg",
	})

	err := apt.NewManager(runner).InstallPackages(context.Background(), ports.ExecContext{}, []string{"nosuchpkg"})

	var toolErr *ports.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 100, toolErr.ExitCode)
}

func TestManager_InstallPackages_RejectsInvalidName(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	err := apt.NewManager(runner).InstallPackages(context.Background(), ports.ExecContext{}, []string{"git;reboot"})

	assert.ErrorIs(t, err, validation.ErrInvalidPackageName)
	assert.Empty(t, runner.Calls())
}
