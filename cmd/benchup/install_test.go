package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/testutil"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
)

func TestInstall_Success(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain()
	fakeTarget(t, "0", tc)

	stdout, _, err := execute(t, "install")
	require.NoError(t, err)
	assert.Equal(t, exitOK, exitCode(err))

	assert.Contains(t, stdout, "ERPNext is ready")
	assert.Contains(t, stdout, "http://192.0.2.10")
	assert.Contains(t, stdout, "Administrator")
	assert.Equal(t, 1, tc.CallCount("CreateSite"))
}

func TestInstall_NotRootExitsOneWithoutToolCalls(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain()
	runner := fakeTarget(t, "1000", tc)

	_, stderr, err := execute(t, "install")
	require.Error(t, err)
	assert.Equal(t, exitPrecondition, exitCode(err))
	assert.Contains(t, stderr, "PERMISSION_DENIED")
	assert.Empty(t, tc.Calls())
	assert.Len(t, runner.Calls(), 1, "only the privilege probe runs")
}

func TestInstall_StepFailureExitsTwo(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain().FailOn("CreateSite", ports.NewToolError("bench new-site", ports.CommandResult{
		ExitCode: 1,
		Stderr:   "Site site1.local already exists",
	}))
	fakeTarget(t, "0", tc)

	stdout, _, err := execute(t, "install")
	require.Error(t, err)
	assert.Equal(t, exitStepFailed, exitCode(err))

	assert.Contains(t, stdout, "site:create:site1.local")
	assert.Contains(t, stdout, "ACTION_FAILED")
	assert.Contains(t, stdout, "already exists")
	assert.NotContains(t, stdout, "ERPNext is ready")
	assert.Equal(t, 0, tc.CallCount("InstallAppOnSite"))
}

func TestInstall_ContinueOnError(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain().FailOn("InstallRuntime", errors.New("nvm: download failed"))
	fakeTarget(t, "0", tc)

	_, _, err := execute(t, "install", "--continue-on-error")
	assert.Equal(t, exitStepFailed, exitCode(err))
	assert.Equal(t, 1, tc.CallCount("InstallCLI"))
}

func TestInstall_ContinueOnErrorReportsEveryFailureMasked(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain().
		FailOn("SetRootPassword", ports.NewToolError("mysqladmin password", ports.CommandResult{
			ExitCode: 1,
			Stderr:   "mysqladmin password root-secret: connect failed",
		})).
		FailOn("InstallRuntime", errors.New("nvm: download failed"))
	fakeTarget(t, "0", tc)

	stdout, stderr, err := execute(t, "install", "--continue-on-error")
	assert.Equal(t, exitStepFailed, exitCode(err))

	assert.Contains(t, stdout, "2 failed")
	assert.Contains(t, stdout, "connect failed")
	assert.Contains(t, stdout, "nvm: download failed")
	assert.NotContains(t, stdout, "root-secret")
	assert.NotContains(t, stderr, "root-secret")
}

func TestInstall_MissingSecretsExitsThree(t *testing.T) {
	tc := mocks.NewToolchain()
	fakeTarget(t, "0", tc)
	t.Setenv("BENCHUP_ADMIN_PASSWORD", "")
	t.Setenv("BENCHUP_DB_ROOT_PASSWORD", "")

	_, stderr, err := execute(t, "install")
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, stderr, "admin_password")
	assert.Empty(t, tc.Calls())
}

func TestInstall_UnknownPresetExitsThree(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain()
	fakeTarget(t, "0", tc)

	_, stderr, err := execute(t, "install", "--preset", "staging")
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, stderr, "staging")
	assert.Empty(t, tc.Calls())
}

func TestInstall_ForceNeedsConfirmation(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain().WithSite("site1.local")
	fakeTarget(t, "0", tc)

	_, stderr, err := execute(t, "install", "--force")
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, stderr, "--yes")
	assert.Empty(t, tc.Calls())

	_, _, err = execute(t, "install", "--force", "--yes")
	require.NoError(t, err)
	assert.Equal(t, 1, tc.CallCount("DropSite"))
	assert.Equal(t, 1, tc.CallCount("CreateSite"))
}

func TestInstall_ConfigFileAndFlagOverrides(t *testing.T) {
	withSecrets(t)
	tc := mocks.NewToolchain()
	fakeTarget(t, "0", tc)

	path := testutil.NewConfigBuilder().
		WithSite("erp.example.com").
		WithUser("erp").
		WithPreset("development").
		WithApps("erpnext").
		WriteFile(t, t.TempDir(), "benchup.toml")

	stdout, _, err := execute(t, "install", "--config", path, "--apps", "hrms")
	require.NoError(t, err)
	assert.Contains(t, stdout, "http://192.0.2.10:8000")

	var installed []string
	for _, call := range tc.Calls() {
		if call.Op == "InstallAppOnSite" {
			installed = append(installed, call.Args...)
		}
	}
	assert.Equal(t, []string{"hrms", "erp.example.com"}, installed)
	assert.Equal(t, 0, tc.CallCount("ConfigureReverseProxy"))
}

func TestInstall_WritesMetricsTextfile(t *testing.T) {
	withSecrets(t)
	fakeTarget(t, "0", mocks.NewToolchain())
	path := filepath.Join(t.TempDir(), "benchup.prom")

	_, _, err := execute(t, "install", "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `benchup_step_results_total{status="completed",step="bench:cli"} 1`)
	assert.Contains(t, string(data), "benchup_run_last_success 1")
}

func TestInstall_BadConfigFileExitsThree(t *testing.T) {
	fakeTarget(t, "0", mocks.NewToolchain())

	_, stderr, err := execute(t, "install", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, stderr, "CONFIG_NOT_FOUND")
}

func TestInstall_UnreachableHostExitsOne(t *testing.T) {
	withSecrets(t)
	orig := connectTarget
	connectTarget = func(_ context.Context, _ ports.Logger) (*target, error) {
		return nil, errors.New("dial tcp 192.0.2.99:22: connect: connection refused")
	}
	t.Cleanup(func() { connectTarget = orig })

	_, stderr, err := execute(t, "install", "--host", "192.0.2.99")
	assert.Equal(t, exitPrecondition, exitCode(err))
	assert.Contains(t, stderr, "cannot reach target host")
}
