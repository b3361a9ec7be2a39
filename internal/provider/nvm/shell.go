// Package nvm manages Node.js through nvm for the application account.
package nvm

import (
	"strings"

	"github.com/felixgeelhaar/benchup/internal/provider/commandutil"
)

// prelude puts the account's nvm node and pip --user scripts on PATH.
// nvm is a shell function, so everything that needs node runs through bash.
const prelude = `export NVM_DIR="$HOME/.nvm"
[ -s "$NVM_DIR/nvm.sh" ] && . "$NVM_DIR/nvm.sh"
export PATH="$HOME/.local/bin:$PATH"
`

// Shell returns the bash arguments that run script with the runtime environment loaded.
func Shell(script string) (string, []string) {
	return "bash", []string{"-c", prelude + script}
}

// Command returns the bash arguments that run one quoted command line with
// the runtime environment loaded.
func Command(name string, args ...string) (string, []string) {
	line := make([]string, 0, len(args)+2)
	line = append(line, "exec", name)
	line = append(line, args...)
	return Shell(commandutil.Join(line...))
}

// Script returns the full script passed to bash by Shell, for display.
func Script(command string, args []string) string {
	if command != "bash" || len(args) != 2 || args[0] != "-c" {
		return ""
	}
	return strings.TrimPrefix(args[1], prelude)
}
