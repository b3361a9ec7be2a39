package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

func TestCommandRunner_AddResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("bench", []string{"--version"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "5.22.9",
	})

	result, err := runner.Run(context.Background(), ports.ExecContext{}, "bench", "--version")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "5.22.9" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "5.22.9")
	}
}

func TestCommandRunner_NotFound(t *testing.T) {
	runner := NewCommandRunner()

	_, err := runner.Run(context.Background(), ports.ExecContext{}, "unknown", "command")
	if err == nil {
		t.Error("Run() should return error for unregistered command")
	}
}

func TestCommandRunner_AddError(t *testing.T) {
	runner := NewCommandRunner()
	want := errors.New("boom")
	runner.AddError("id", []string{"-u"}, want)

	_, err := runner.Run(context.Background(), ports.ExecContext{}, "id", "-u")
	if !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
}

func TestCommandRunner_Sequence(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddSequence("supervisorctl", []string{"status"},
		ports.CommandResult{ExitCode: 3},
		ports.CommandResult{ExitCode: 0},
	)

	first, _ := runner.Run(context.Background(), ports.ExecContext{}, "supervisorctl", "status")
	second, _ := runner.Run(context.Background(), ports.ExecContext{}, "supervisorctl", "status")
	third, _ := runner.Run(context.Background(), ports.ExecContext{}, "supervisorctl", "status")

	if first.ExitCode != 3 || second.ExitCode != 0 || third.ExitCode != 0 {
		t.Errorf("exit codes = %d %d %d, want 3 0 0", first.ExitCode, second.ExitCode, third.ExitCode)
	}
}

func TestCommandRunner_RecordsCalls(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("apt-get", []string{"install", "-y", "git"}, ports.CommandResult{ExitCode: 0})

	ec := ports.ExecContext{}.AsUser("frappe").InDir("/home/frappe")
	_, _ = runner.Run(context.Background(), ec, "apt-get", "install", "-y", "git")

	calls := runner.CallsTo("apt-get")
	if len(calls) != 1 {
		t.Fatalf("CallsTo() len = %d, want 1", len(calls))
	}
	if calls[0].Exec.User != "frappe" || calls[0].Exec.Dir != "/home/frappe" {
		t.Errorf("calls[0].Exec = %+v", calls[0].Exec)
	}
	if calls[0].String() != "apt-get install -y git" {
		t.Errorf("calls[0].String() = %q", calls[0].String())
	}
}

func TestCommandRunner_WriteFile(t *testing.T) {
	runner := NewCommandRunner()
	if err := runner.WriteFile(context.Background(), "/etc/x.cnf", []byte("a=b"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	f, ok := runner.File("/etc/x.cnf")
	if !ok || string(f.Data) != "a=b" || f.Perm != 0o644 {
		t.Errorf("File() = %+v, %v", f, ok)
	}

	runner.FailWrite("/etc/y.cnf", errors.New("read-only"))
	if err := runner.WriteFile(context.Background(), "/etc/y.cnf", nil, 0o644); err == nil {
		t.Error("WriteFile() should fail for a path registered with FailWrite")
	}
}

func TestCommandRunner_Reset(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("bench", []string{"--version"}, ports.CommandResult{ExitCode: 0})
	_, _ = runner.Run(context.Background(), ports.ExecContext{}, "bench", "--version")

	runner.Reset()

	if len(runner.Calls()) != 0 {
		t.Error("Reset() should clear all calls")
	}
	if _, err := runner.Run(context.Background(), ports.ExecContext{}, "bench", "--version"); err == nil {
		t.Error("Reset() should clear all results")
	}
}

func TestCommandRunner_ThreadSafety(t *testing.T) {
	runner := NewCommandRunner()

	for i := 0; i < 26; i++ {
		runner.AddResult("cmd", []string{string(rune('a' + i))}, ports.CommandResult{ExitCode: 0})
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), ports.ExecContext{}, "cmd", string(rune('a'+idx%26)))
			_ = runner.Calls()
		}(i)
	}

	wg.Wait()

	if calls := runner.Calls(); len(calls) != 100 {
		t.Errorf("Expected 100 calls, got %d", len(calls))
	}
}
