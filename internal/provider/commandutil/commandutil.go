// Package commandutil holds helpers shared by the tool adapters.
package commandutil

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// exitNotFound is the shell's exit status for an unknown command.
const exitNotFound = 127

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Missing reports whether a command run failed because the program does not
// exist, either locally (start error) or through a shell (exit 127).
func Missing(result ports.CommandResult, err error) bool {
	if err != nil {
		return IsCommandNotFound(err)
	}
	return result.ExitCode == exitNotFound
}

// Quote returns s quoted for a POSIX shell.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes and joins arguments into a single shell command line.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@%+,", r):
		return false
	}
	return true
}
