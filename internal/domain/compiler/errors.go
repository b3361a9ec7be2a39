package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a step or a pipeline failed.
type ErrorKind string

// Error kinds.
const (
	KindPreconditionCheckFailed ErrorKind = "PRECONDITION_CHECK_FAILED"
	KindActionFailed            ErrorKind = "ACTION_FAILED"
	KindVerificationFailed      ErrorKind = "VERIFICATION_FAILED"
	KindCyclicDependency        ErrorKind = "CYCLIC_DEPENDENCY"
	KindPermissionDenied        ErrorKind = "PERMISSION_DENIED"
	KindInvalidConfiguration    ErrorKind = "INVALID_CONFIGURATION"
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	return string(k)
}

// IsConfiguration reports whether the kind describes a broken pipeline
// definition rather than a host failure.
func (k ErrorKind) IsConfiguration() bool {
	return k == KindCyclicDependency || k == KindInvalidConfiguration
}

// Diagnoser is implemented by errors that carry raw output of an external tool.
type Diagnoser interface {
	Diagnostic() string
}

// StepError represents a classified failure with actionable suggestions.
type StepError struct {
	Kind       ErrorKind // Failure classification
	Message    string    // User-friendly error message
	StepID     string    // Step ID if applicable
	Diagnostic string    // Raw tool output, if any
	Suggestion string    // Actionable suggestion to fix the error
	Underlying error     // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	msg := e.Message
	if e.StepID != "" {
		msg = fmt.Sprintf("step %q: %s", e.StepID, e.Message)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error for error chain support.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Is matches another *StepError by kind, so errors.Is(err, &StepError{Kind: k}) works.
func (e *StepError) Is(target error) bool {
	var other *StepError
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *StepError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)

	if e.StepID != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.StepID)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}
	if e.Diagnostic != "" {
		b.WriteString("\n  Output:")
		for _, line := range strings.Split(strings.TrimRight(e.Diagnostic, "\n"), "\n") {
			b.WriteString("\n    ")
			b.WriteString(line)
		}
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// NewStepError creates a new StepError with the given kind and message.
func NewStepError(kind ErrorKind, message string) *StepError {
	return &StepError{
		Kind:    kind,
		Message: message,
	}
}

// KindOf returns the kind of the first StepError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind, true
	}
	return "", false
}

// WithStepID returns a new StepError with step ID set.
func (e *StepError) WithStepID(stepID string) *StepError {
	clone := *e
	clone.StepID = stepID
	return &clone
}

// WithSuggestion returns a new StepError with suggestion set.
func (e *StepError) WithSuggestion(suggestion string) *StepError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a new StepError wrapping another error.
// The diagnostic is taken from the error when it carries tool output.
func (e *StepError) WithUnderlying(err error) *StepError {
	clone := *e
	clone.Underlying = err
	var d Diagnoser
	if errors.As(err, &d) && clone.Diagnostic == "" {
		clone.Diagnostic = d.Diagnostic()
	}
	return &clone
}

// NewPreconditionCheckFailedError creates an error for a check that could not run.
func NewPreconditionCheckFailedError(stepID string, err error) *StepError {
	return NewStepError(KindPreconditionCheckFailed, "precondition check failed").
		WithStepID(stepID).
		WithUnderlying(err).
		WithSuggestion("The step could not inspect the host. Check that the tools it queries are installed and reachable.")
}

// NewActionFailedError creates an error for a failed action.
func NewActionFailedError(stepID string, err error) *StepError {
	return NewStepError(KindActionFailed, "action failed").
		WithStepID(stepID).
		WithUnderlying(err).
		WithSuggestion("Fix the cause reported by the tool and run the install again; completed steps will be skipped.")
}

// NewVerificationFailedError creates an error for an action whose postcondition does not hold.
func NewVerificationFailedError(stepID string, err error) *StepError {
	e := NewStepError(KindVerificationFailed, "action reported success but postcondition does not hold").
		WithStepID(stepID).
		WithSuggestion("Inspect the host manually; the tool may have exited 0 without completing its work.")
	if err != nil {
		e = e.WithUnderlying(err)
	}
	return e
}

// NewCyclicDependencyError creates an error for cyclic dependencies.
func NewCyclicDependencyError(cycle []string) *StepError {
	return &StepError{
		Kind:       KindCyclicDependency,
		Message:    fmt.Sprintf("cyclic dependency detected: %s", strings.Join(cycle, " → ")),
		Suggestion: "Review the step dependencies to break the circular chain.",
		Underlying: ErrCyclicDependency,
	}
}

// NewDuplicateStepError creates an error for a step ID registered twice.
func NewDuplicateStepError(stepID string) *StepError {
	return &StepError{
		Kind:       KindInvalidConfiguration,
		Message:    "step with this ID already exists in the pipeline",
		StepID:     stepID,
		Suggestion: "Each step must have a unique ID. Check for duplicate apps or sites in the configuration.",
		Underlying: ErrDuplicateStep,
	}
}

// NewDependencyMissingError creates an error for missing step dependency.
func NewDependencyMissingError(stepID, dependsOn string) *StepError {
	return &StepError{
		Kind:       KindInvalidConfiguration,
		Message:    fmt.Sprintf("step depends on %q which is not part of the pipeline", dependsOn),
		StepID:     stepID,
		Suggestion: "Select a preset that includes the dependency or add it to the step list.",
		Underlying: ErrMissingDep,
	}
}

// NewPermissionDeniedError creates an error for a run without the required privilege.
func NewPermissionDeniedError(err error) *StepError {
	e := &StepError{
		Kind:       KindPermissionDenied,
		Message:    "provisioning requires root privileges",
		Suggestion: "Re-run the command with sudo or as root on the target host.",
	}
	if err != nil {
		e = e.WithUnderlying(err)
	}
	return e
}
