// Package system manages OS accounts and reports host facts.
package system

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

// HomeBase is the parent directory of account home directories.
const HomeBase = "/home"

// HomeDir returns the home directory adduser assigns to user.
func HomeDir(user string) string {
	return path.Join(HomeBase, user)
}

// Users implements ports.UserManager with the Debian adduser tools.
type Users struct {
	runner ports.CommandRunner
}

// NewUsers creates a Users manager.
func NewUsers(runner ports.CommandRunner) *Users {
	return &Users{runner: runner}
}

// UserExists reports whether the account is known to NSS.
func (u *Users) UserExists(ctx context.Context, ec ports.ExecContext, name string) (bool, error) {
	return ports.Probe(ctx, u.runner, ec, "id", "-u", name)
}

// CreateUser adds the account, sets its password, adds it to opts.Groups, and
// makes its home directory traversable for the web server.
func (u *Users) CreateUser(ctx context.Context, ec ports.ExecContext, name string, opts ports.UserOptions) error {
	if err := validation.ValidateUsername(name); err != nil {
		return err
	}

	args := []string{"--disabled-password", "--gecos", ""}
	if opts.Shell != "" {
		args = append(args, "--shell", opts.Shell)
	}
	args = append(args, name)
	if _, err := ports.RunChecked(ctx, u.runner, ec, "adduser", args...); err != nil {
		return err
	}

	if opts.Password != "" {
		if err := validation.ValidateSecret(opts.Password); err != nil {
			return fmt.Errorf("password for %s: %w", name, err)
		}
		input := fmt.Sprintf("%s:%s\n", name, opts.Password)
		if _, err := ports.RunChecked(ctx, u.runner, ec.WithStdin(input), "chpasswd"); err != nil {
			return err
		}
	}

	if len(opts.Groups) > 0 {
		if _, err := ports.RunChecked(ctx, u.runner, ec, "usermod", "-aG", strings.Join(opts.Groups, ","), name); err != nil {
			return err
		}
	}

	_, err := ports.RunChecked(ctx, u.runner, ec, "chmod", "755", HomeDir(name))
	return err
}

var _ ports.UserManager = (*Users)(nil)
