package nvm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/commandutil"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

// DefaultInstallerURL is the pinned nvm install script.
const DefaultInstallerURL = "https://raw.githubusercontent.com/nvm-sh/nvm/v0.39.7/install.sh"

// Runtime implements ports.RuntimeManager.
type Runtime struct {
	runner       ports.CommandRunner
	installerURL string
}

// NewRuntime creates a Runtime manager.
func NewRuntime(runner ports.CommandRunner) *Runtime {
	return &Runtime{
		runner:       runner,
		installerURL: DefaultInstallerURL,
	}
}

// RuntimeInstalled reports whether nvm resolves version to an installed node.
func (r *Runtime) RuntimeInstalled(ctx context.Context, ec ports.ExecContext, version string) (bool, error) {
	cmd, args := Shell("nvm version " + commandutil.Quote(nvmVersion(version)))
	result, err := r.runner.Run(ctx, ec, cmd, args...)
	if err != nil {
		return false, fmt.Errorf("nvm: %w", err)
	}
	if !result.Success() {
		return false, nil
	}
	return Matches(strings.TrimSpace(result.Stdout), version), nil
}

// InstallRuntime installs nvm if needed, then installs version and makes it the default.
func (r *Runtime) InstallRuntime(ctx context.Context, ec ports.ExecContext, version string) error {
	if err := validation.ValidateRuntimeVersion(version); err != nil {
		return err
	}
	v := commandutil.Quote(nvmVersion(version))
	script := fmt.Sprintf(`if [ ! -s "$NVM_DIR/nvm.sh" ]; then
  curl -fsSL %s | bash || exit 1
  . "$NVM_DIR/nvm.sh"
fi
nvm install %s && nvm alias default %s`, commandutil.Quote(r.installerURL), v, v)

	cmd, args := Shell(script)
	_, err := ports.RunChecked(ctx, r.runner, ec, cmd, args...)
	return err
}

// PackageRunnerInstalled reports whether yarn is on the account's PATH.
func (r *Runtime) PackageRunnerInstalled(ctx context.Context, ec ports.ExecContext) (bool, error) {
	cmd, args := Shell("command -v yarn >/dev/null")
	return ports.Probe(ctx, r.runner, ec, cmd, args...)
}

// InstallPackageRunner installs yarn globally into the default node.
func (r *Runtime) InstallPackageRunner(ctx context.Context, ec ports.ExecContext) error {
	cmd, args := Command("npm", "install", "-g", "yarn")
	_, err := ports.RunChecked(ctx, r.runner, ec, cmd, args...)
	return err
}

// Matches reports whether an installed version such as "v18.19.0" satisfies
// the requested one. A partial request matches on the components it names;
// aliases accept any released version.
func Matches(installed, requested string) bool {
	if !semver.IsValid(installed) {
		return false
	}
	if requested == "lts" || requested == "node" {
		return true
	}
	want := validation.CanonicalVersion(requested)
	if !semver.IsValid(want) {
		return false
	}
	switch strings.Count(want, ".") {
	case 0:
		return semver.Major(installed) == semver.Major(want)
	case 1:
		return semver.MajorMinor(installed) == semver.MajorMinor(want)
	default:
		return semver.Compare(installed, want) == 0
	}
}

func nvmVersion(version string) string {
	if version == "lts" {
		return "lts/*"
	}
	return version
}

var _ ports.RuntimeManager = (*Runtime)(nil)
