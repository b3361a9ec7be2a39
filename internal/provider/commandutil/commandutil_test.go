package commandutil

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec ErrNotFound", exec.ErrNotFound, true},
		{"exec error wrapper", &exec.Error{Err: exec.ErrNotFound}, true},
		{"path error", &os.PathError{Err: os.ErrNotExist}, true},
		{"other error", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsCommandNotFound(tt.err))
		})
	}
}

func TestMissing(t *testing.T) {
	require.True(t, Missing(ports.CommandResult{}, exec.ErrNotFound))
	require.True(t, Missing(ports.CommandResult{ExitCode: 127}, nil))
	require.False(t, Missing(ports.CommandResult{ExitCode: 1}, nil))
	require.False(t, Missing(ports.CommandResult{}, errors.New("connection reset")))
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"":                "''",
		"bench":           "bench",
		"erp.example.com": "erp.example.com",
		"--branch=v15":    "--branch=v15",
		"two words":       "'two words'",
		"it's":            `'it'\''s'`,
		"$HOME":           "'$HOME'",
		"a;rm -rf /":      "'a;rm -rf /'",
	}
	for input, want := range tests {
		require.Equal(t, want, Quote(input), input)
	}
}

func TestJoin(t *testing.T) {
	require.Equal(t, "bench --site erp.local install-app hrms", Join("bench", "--site", "erp.local", "install-app", "hrms"))
	require.Equal(t, "echo 'a b' ''", Join("echo", "a b", ""))
}
