package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolFailure struct {
	stderr string
}

func (e *toolFailure) Error() string      { return "tool exited with code 1" }
func (e *toolFailure) Diagnostic() string { return e.stderr }

func TestStepError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *StepError
		expected string
	}{
		{
			name:     "message only",
			err:      NewStepError(KindInvalidConfiguration, "bad config"),
			expected: "bad config",
		},
		{
			name:     "with step ID",
			err:      NewStepError(KindActionFailed, "action failed").WithStepID("bench:cli"),
			expected: `step "bench:cli": action failed`,
		},
		{
			name:     "with cause",
			err:      NewStepError(KindActionFailed, "action failed").WithStepID("bench:cli").WithUnderlying(errors.New("exit 1")),
			expected: `step "bench:cli": action failed: exit 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestStepError_WithUnderlyingCapturesDiagnostic(t *testing.T) {
	t.Parallel()

	cause := &toolFailure{stderr: "Database erpsite already exists"}
	err := NewActionFailedError("site:create:erpsite", cause)

	assert.Equal(t, KindActionFailed, err.Kind)
	assert.Equal(t, "Database erpsite already exists", err.Diagnostic)
	assert.ErrorIs(t, err, cause)
}

func TestStepError_IsByKind(t *testing.T) {
	t.Parallel()

	err := NewCyclicDependencyError([]string{"a", "b", "a"})

	assert.ErrorIs(t, err, &StepError{Kind: KindCyclicDependency})
	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.NotErrorIs(t, err, &StepError{Kind: KindActionFailed})
}

func TestStepError_Format(t *testing.T) {
	t.Parallel()

	err := NewActionFailedError("site:create:erpsite", &toolFailure{stderr: "line one\nline two\n"})
	out := err.Format()

	assert.Contains(t, out, "[ACTION_FAILED] action failed")
	assert.Contains(t, out, "Step: site:create:erpsite")
	assert.Contains(t, out, "Output:\n    line one\n    line two")
	assert.Contains(t, out, "Suggestion:")
}

func TestStepError_WithersDoNotMutate(t *testing.T) {
	t.Parallel()

	base := NewStepError(KindActionFailed, "failed")
	derived := base.WithStepID("x").WithSuggestion("retry")

	assert.Empty(t, base.StepID)
	assert.Empty(t, base.Suggestion)
	assert.Equal(t, "x", derived.StepID)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("context"), NewPermissionDeniedError(nil))
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindPermissionDenied, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorKind_IsConfiguration(t *testing.T) {
	t.Parallel()

	assert.True(t, KindCyclicDependency.IsConfiguration())
	assert.True(t, KindInvalidConfiguration.IsConfiguration())
	assert.False(t, KindActionFailed.IsConfiguration())
	assert.False(t, KindPermissionDenied.IsConfiguration())
}
