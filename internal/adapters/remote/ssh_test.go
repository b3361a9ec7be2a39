package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

func TestCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ec   ports.ExecContext
		sudo bool
		want string
	}{
		{
			name: "plain",
			want: "bench --version",
		},
		{
			name: "sudo for non-root login",
			sudo: true,
			want: "sudo -n bench --version",
		},
		{
			name: "as other user in dir",
			ec:   ports.ExecContext{User: "frappe", Dir: "/home/frappe/frappe-bench"},
			sudo: true,
			want: "cd /home/frappe/frappe-bench && sudo -n -u frappe -H bench --version",
		},
		{
			name: "env with spaces",
			ec:   ports.ExecContext{Env: []string{"MSG=hello world"}},
			want: "env 'MSG=hello world' bench --version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CommandLine(tt.ec, tt.sudo, "bench", "--version"))
		})
	}
}

func TestAuthMethods_MissingIdentityFile(t *testing.T) {
	t.Parallel()

	_, err := authMethods(Config{IdentityFile: "/nonexistent/benchup/id_ed25519"})

	assert.Error(t, err)
}
