package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/testutil/mocks"
	"github.com/felixgeelhaar/benchup/internal/validation"
)

func TestUsers_UserExists(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("id", []string{"-u", "frappe"}, ports.CommandResult{ExitCode: 1, Stderr: "id: 'frappe': no such user"})
	runner.AddResult("id", []string{"-u", "ubuntu"}, ports.CommandResult{Stdout: "1000\n"})

	users := NewUsers(runner)

	exists, err := users.UserExists(context.Background(), ports.ExecContext{}, "frappe")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = users.UserExists(context.Background(), ports.ExecContext{}, "ubuntu")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUsers_CreateUser(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("adduser", []string{"--disabled-password", "--gecos", "", "--shell", "/bin/bash", "frappe"}, ports.CommandResult{})
	runner.AddResult("chpasswd", nil, ports.CommandResult{})
	runner.AddResult("usermod", []string{"-aG", "sudo", "frappe"}, ports.CommandResult{})
	runner.AddResult("chmod", []string{"755", "/home/frappe"}, ports.CommandResult{})

	err := NewUsers(runner).CreateUser(context.Background(), ports.ExecContext{}, "frappe", ports.UserOptions{
		Password: "s3cret",
		Groups:   []string{"sudo"},
		Shell:    "/bin/bash",
	})
	require.NoError(t, err)

	chpasswd := runner.CallsTo("chpasswd")
	require.Len(t, chpasswd, 1)
	assert.Equal(t, "frappe:s3cret\n", chpasswd[0].Exec.Stdin)
	assert.Empty(t, chpasswd[0].Args, "password must not appear on the command line")
}

func TestUsers_CreateUser_AddUserFails(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("adduser", []string{"--disabled-password", "--gecos", "", "frappe"}, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "adduser: The user `frappe' already exists.",
	})

	err := NewUsers(runner).CreateUser(context.Background(), ports.ExecContext{}, "frappe", ports.UserOptions{})

	var toolErr *ports.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Diagnostic(), "already exists")
	assert.Empty(t, runner.CallsTo("chmod"))
}

func TestUsers_CreateUser_RejectsRoot(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	err := NewUsers(runner).CreateUser(context.Background(), ports.ExecContext{}, "root", ports.UserOptions{})

	assert.ErrorIs(t, err, validation.ErrInvalidUsername)
	assert.Empty(t, runner.Calls())
}

func TestHostInfo_PrimaryAddress(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("hostname", []string{"-I"}, ports.CommandResult{Stdout: "10.0.0.12 172.17.0.1 fd00::12 \n"})

	addr, err := NewHostInfo(runner).PrimaryAddress(context.Background(), ports.ExecContext{})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.12", addr)
}

func TestHostInfo_NoAddress(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("hostname", []string{"-I"}, ports.CommandResult{Stdout: "\n"})

	_, err := NewHostInfo(runner).PrimaryAddress(context.Background(), ports.ExecContext{})
	assert.ErrorIs(t, err, ErrNoAddress)
}
