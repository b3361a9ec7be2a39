// Package privilege verifies that provisioning runs with root privileges.
package privilege

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/ports"
)

// Checker asks the host for the effective user id.
type Checker struct {
	runner ports.CommandRunner
}

// NewChecker creates a Checker that queries the host through runner.
func NewChecker(runner ports.CommandRunner) *Checker {
	return &Checker{runner: runner}
}

// CheckPrivilege returns a PermissionDenied StepError unless the effective uid is 0.
func (c *Checker) CheckPrivilege(ctx context.Context) error {
	result, err := ports.RunChecked(ctx, c.runner, ports.ExecContext{}, "id", "-u")
	if err != nil {
		return compiler.NewPermissionDeniedError(fmt.Errorf("cannot determine effective user: %w", err))
	}

	uid := strings.TrimSpace(result.Stdout)
	if uid != "0" {
		return compiler.NewPermissionDeniedError(fmt.Errorf("effective uid is %s", uid))
	}
	return nil
}

var _ ports.PrivilegeChecker = (*Checker)(nil)
