// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// WrittenFile records a WriteFile call.
type WrittenFile struct {
	Data []byte
	Perm os.FileMode
}

// CommandRunner is a thread-safe test double for ports.Host.
// Results are keyed by command and arguments; a key registered with
// AddSequence answers successive calls from its queue and repeats the last entry.
type CommandRunner struct {
	mu        sync.RWMutex
	results   map[string][]ports.CommandResult
	errors    map[string]error
	calls     []ports.CommandCall
	files     map[string]WrittenFile
	writeErrs map[string]error
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:   make(map[string][]ports.CommandResult),
		errors:    make(map[string]error),
		calls:     make([]ports.CommandCall, 0),
		files:     make(map[string]WrittenFile),
		writeErrs: make(map[string]error),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.AddSequence(command, args, result)
}

// AddSequence registers results returned by successive calls of the same command.
func (m *CommandRunner) AddSequence(command string, args []string, results ...ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = append([]ports.CommandResult(nil), results...)
}

// AddError registers an expected command that should fail to start.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// FailWrite makes WriteFile to path return err.
func (m *CommandRunner) FailWrite(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrs[path] = err
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, ec ports.ExecContext, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
		Exec:    ec,
	})

	key := buildKey(command, args)
	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}

	queue, ok := m.results[key]
	if !ok || len(queue) == 0 {
		return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
	}
	result := queue[0]
	if len(queue) > 1 {
		m.results[key] = queue[1:]
	}
	return result, nil
}

// WriteFile records the file contents.
func (m *CommandRunner) WriteFile(_ context.Context, path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.writeErrs[path]; ok {
		return err
	}
	m.files[path] = WrittenFile{Data: append([]byte(nil), data...), Perm: perm}
	return nil
}

// File returns the last contents written to path.
func (m *CommandRunner) File(path string) (WrittenFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	return f, ok
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallsTo returns the recorded invocations of one command.
func (m *CommandRunner) CallsTo(command string) []ports.CommandCall {
	var out []ports.CommandCall
	for _, c := range m.Calls() {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all registered results, errors, files, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string][]ports.CommandResult)
	m.errors = make(map[string]error)
	m.calls = make([]ports.CommandCall, 0)
	m.files = make(map[string]WrittenFile)
	m.writeErrs = make(map[string]error)
}

func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

var _ ports.Host = (*CommandRunner)(nil)
