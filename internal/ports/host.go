package ports

import (
	"context"
	"os"
)

// FileWriter places files on the target host.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error
}

// Host is a target machine: somewhere to run commands and write files.
type Host interface {
	CommandRunner
	FileWriter
}

// PrivilegeChecker verifies that the orchestrator may mutate the host.
// It returns nil when the effective identity is root.
type PrivilegeChecker interface {
	CheckPrivilege(ctx context.Context) error
}
