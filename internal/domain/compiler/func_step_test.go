package compiler

import (
	"context"
	"errors"
	"testing"
)

func TestFuncStep_CheckMapsToStatus(t *testing.T) {
	ctx := NewRunContext(context.Background())
	boom := errors.New("boom")

	tests := []struct {
		name    string
		check   CheckFunc
		want    StepStatus
		wantErr bool
	}{
		{"satisfied", func(RunContext) (bool, error) { return true, nil }, StatusSatisfied, false},
		{"needs apply", func(RunContext) (bool, error) { return false, nil }, StatusNeedsApply, false},
		{"error", func(RunContext) (bool, error) { return false, boom }, StatusUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := NewFuncStep(MustNewStepID("x"), tt.check, func(RunContext) error { return nil })
			got, err := step.Check(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Check() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFuncStep_VerifyDefaultsToCheck(t *testing.T) {
	ctx := NewRunContext(context.Background())
	applied := false

	step := NewFuncStep(
		MustNewStepID("x"),
		func(RunContext) (bool, error) { return applied, nil },
		func(RunContext) error { applied = true; return nil },
	)

	if status, _ := step.Verify(ctx); status != StatusNeedsApply {
		t.Errorf("Verify() before apply = %q, want %q", status, StatusNeedsApply)
	}
	_ = step.Apply(ctx)
	if status, _ := step.Verify(ctx); status != StatusSatisfied {
		t.Errorf("Verify() after apply = %q, want %q", status, StatusSatisfied)
	}
}

func TestFuncStep_WithVerify(t *testing.T) {
	ctx := NewRunContext(context.Background())
	step := NewFuncStep(
		MustNewStepID("x"),
		func(RunContext) (bool, error) { return false, nil },
		func(RunContext) error { return nil },
	).WithVerify(func(RunContext) (bool, error) { return true, nil })

	if status, _ := step.Verify(ctx); status != StatusSatisfied {
		t.Errorf("Verify() = %q, want %q", status, StatusSatisfied)
	}
}

func TestFuncStep_WithDependsOnCopies(t *testing.T) {
	base := newTestStep("b")
	withA := base.WithDependsOn(MustNewStepID("a"))
	withAB := withA.WithDependsOn(MustNewStepID("a"), MustNewStepID("c"))

	if len(base.DependsOn()) != 0 {
		t.Errorf("base deps = %v, want none", base.DependsOn())
	}
	if len(withA.DependsOn()) != 1 {
		t.Errorf("withA deps = %v, want [a]", withA.DependsOn())
	}
	if len(withAB.DependsOn()) != 2 {
		t.Errorf("withAB deps = %v, want [a c]", withAB.DependsOn())
	}
}
