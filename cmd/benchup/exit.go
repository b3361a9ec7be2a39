package main

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
)

// Process exit codes.
const (
	exitOK           = 0
	exitPrecondition = 1 // nothing ran: privilege or target host unavailable
	exitStepFailed   = 2 // a step failed or the run was cancelled
	exitConfig       = 3 // invalid configuration or pipeline definition
)

// exitError carries the exit code for an error that has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return classify(err)
}

// classify maps an unreported error to an exit code.
func classify(err error) int {
	if kind, ok := compiler.KindOf(err); ok {
		switch {
		case kind == compiler.KindPermissionDenied:
			return exitPrecondition
		case kind.IsConfiguration():
			return exitConfig
		default:
			return exitStepFailed
		}
	}

	var list *config.ErrorList
	if errors.As(err, &list) || config.GetUserError(err) != nil {
		return exitConfig
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return exitStepFailed
	}
	return exitPrecondition
}
