package compiler

import (
	"errors"
	"regexp"
	"strings"
)

// StepID uniquely identifies a step within a pipeline.
// Format: group:action[:resource...] (e.g., "site:app:erp.example.com:hrms")
type StepID struct {
	value string
}

// Errors for StepID validation.
var (
	ErrEmptyStepID   = errors.New("step ID cannot be empty")
	ErrInvalidStepID = errors.New("step ID format invalid: segments must be alphanumeric with dots, hyphens, underscores, or slashes, separated by colons")
)

// Segments may contain dots so that site names can be part of an ID.
var stepIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*(?::[a-zA-Z0-9][a-zA-Z0-9._/-]*)*$`)

// NewStepID creates a new StepID from a string.
func NewStepID(value string) (StepID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StepID{}, ErrEmptyStepID
	}

	if !stepIDPattern.MatchString(trimmed) {
		return StepID{}, ErrInvalidStepID
	}

	return StepID{value: trimmed}, nil
}

// MustNewStepID creates a new StepID from a string, panicking on error.
// Use this for values built from already validated configuration.
func MustNewStepID(value string) StepID {
	id, err := NewStepID(value)
	if err != nil {
		panic("invalid step ID: " + value + ": " + err.Error())
	}
	return id
}

// JoinStepID builds a StepID from segments.
func JoinStepID(segments ...string) (StepID, error) {
	return NewStepID(strings.Join(segments, ":"))
}

// String returns the string representation.
func (id StepID) String() string {
	return id.value
}

// Equals checks equality with another StepID.
func (id StepID) Equals(other StepID) bool {
	return id.value == other.value
}

// Group extracts the group name (first segment), e.g. "site".
func (id StepID) Group() string {
	group, _, _ := strings.Cut(id.value, ":")
	return group
}

// IsZero returns true if this is a zero-value StepID.
func (id StepID) IsZero() bool {
	return id.value == ""
}
