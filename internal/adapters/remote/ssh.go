// Package remote runs commands on a target host over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/felixgeelhaar/benchup/internal/ports"
	"github.com/felixgeelhaar/benchup/internal/provider/commandutil"
)

// Config describes how to reach the target host.
type Config struct {
	Host         string
	Port         int
	User         string
	IdentityFile string
	Timeout      time.Duration
	// Sudo prefixes every command with "sudo -n" when User is not root.
	Sudo bool
}

// DefaultIdentityFiles are tried when Config.IdentityFile is empty.
func DefaultIdentityFiles() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
}

// Host is a ports.Host backed by one SSH connection.
type Host struct {
	client *ssh.Client
	sudo   bool
	logger ports.Logger
}

// Dial connects to the target host.
func Dial(ctx context.Context, cfg Config) (*Host, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	user := cfg.User
	if user == "" {
		user = "root"
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	clientCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // target hosts are freshly provisioned machines
		Timeout:         timeout,
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientCfg)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}

	return &Host{
		client: ssh.NewClient(sshConn, chans, reqs),
		sudo:   cfg.Sudo && user != "root",
	}, nil
}

func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	if cfg.IdentityFile != "" {
		signer, err := loadPrivateKey(cfg.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load identity file %s: %w", cfg.IdentityFile, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	var signers []ssh.Signer
	for _, p := range DefaultIdentityFiles() {
		if signer, err := loadPrivateKey(p); err == nil {
			signers = append(signers, signer)
		}
	}
	if len(signers) == 0 {
		return nil, errors.New("no SSH identity available: pass --ssh-key")
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signers...)}, nil
}

func loadPrivateKey(p string) (ssh.Signer, error) {
	if strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		p = filepath.Join(home, p[2:])
	}
	key, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

// WithLogger returns a Host that logs every command at debug level.
func (h *Host) WithLogger(logger ports.Logger) *Host {
	return &Host{client: h.client, sudo: h.sudo, logger: logger}
}

// Run executes a command on the remote host.
func (h *Host) Run(ctx context.Context, ec ports.ExecContext, command string, args ...string) (ports.CommandResult, error) {
	line := CommandLine(ec, h.sudo, command, args...)
	if h.logger != nil {
		h.logger.Debug(ctx, "exec",
			ports.F("cmd", ports.CommandCall{Command: command, Args: args}.String()),
			ports.F("user", ec.User),
			ports.F("dir", ec.Dir),
			ports.F("transport", "ssh"))
	}
	return h.run(ctx, line, ec.Stdin)
}

// WriteFile writes data to path on the remote host, creating parent directories.
func (h *Host) WriteFile(ctx context.Context, p string, data []byte, perm os.FileMode) error {
	script := fmt.Sprintf("mkdir -p %s && cat > %s && chmod %o %s",
		commandutil.Quote(path.Dir(p)), commandutil.Quote(p), perm.Perm(), commandutil.Quote(p))
	result, err := h.Run(ctx, ports.ExecContext{Stdin: string(data)}, "sh", "-c", script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return ports.NewToolError("write "+p, result)
	}
	return nil
}

// Close closes the SSH connection.
func (h *Host) Close() error {
	return h.client.Close()
}

func (h *Host) run(ctx context.Context, line, stdin string) (ports.CommandResult, error) {
	session, err := h.client.NewSession()
	if err != nil {
		return ports.CommandResult{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(line)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return ports.CommandResult{}, ctx.Err()
	case err := <-done:
		result := ports.CommandResult{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitStatus()
				return result, nil
			}
			return result, err
		}
		return result, nil
	}
}

// CommandLine renders a command as the shell line sent to the remote host.
func CommandLine(ec ports.ExecContext, sudo bool, command string, args ...string) string {
	var argv []string
	switch {
	case ec.User != "":
		argv = append(argv, "sudo", "-n", "-u", ec.User, "-H")
	case sudo:
		argv = append(argv, "sudo", "-n")
	}
	if len(ec.Env) > 0 {
		argv = append(argv, "env")
		argv = append(argv, ec.Env...)
	}
	argv = append(argv, command)
	argv = append(argv, args...)

	line := commandutil.Join(argv...)
	if ec.Dir != "" {
		line = "cd " + commandutil.Quote(ec.Dir) + " && " + line
	}
	return line
}

var _ ports.Host = (*Host)(nil)
