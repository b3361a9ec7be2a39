package compiler

import (
	"errors"
	"testing"
)

func TestNewStepID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "group and action", input: "system:packages"},
		{name: "with resource", input: "system:user:frappe"},
		{name: "site name with dots", input: "site:create:erp.example.com"},
		{name: "nested resource", input: "site:app:erp.example.com:hrms"},
		{name: "surrounding spaces trimmed", input: "  bench:cli  "},
		{name: "empty", input: "", wantErr: ErrEmptyStepID},
		{name: "only spaces", input: "   ", wantErr: ErrEmptyStepID},
		{name: "leading colon", input: ":bench", wantErr: ErrInvalidStepID},
		{name: "trailing colon", input: "bench:", wantErr: ErrInvalidStepID},
		{name: "double colon", input: "bench::cli", wantErr: ErrInvalidStepID},
		{name: "inner space", input: "bench:get app", wantErr: ErrInvalidStepID},
		{name: "leading dot segment", input: "site:.hidden", wantErr: ErrInvalidStepID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewStepID(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewStepID(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr == nil && id.IsZero() {
				t.Errorf("NewStepID(%q) returned zero ID", tt.input)
			}
		})
	}
}

func TestStepID_Equality(t *testing.T) {
	a := MustNewStepID("bench:cli")
	b := MustNewStepID("bench:cli")
	c := MustNewStepID("bench:init:frappe-bench")

	if !a.Equals(b) {
		t.Error("identical IDs should be equal")
	}
	if a.Equals(c) {
		t.Error("different IDs should not be equal")
	}
}

func TestStepID_Group(t *testing.T) {
	tests := map[string]string{
		"system:packages":         "system",
		"site:app:erp.local:hrms": "site",
		"production:supervisor":   "production",
		"runtime":                 "runtime",
	}
	for input, want := range tests {
		if got := MustNewStepID(input).Group(); got != want {
			t.Errorf("Group(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestJoinStepID(t *testing.T) {
	id, err := JoinStepID("site", "app", "erp.local", "erpnext")
	if err != nil {
		t.Fatalf("JoinStepID() error = %v", err)
	}
	if id.String() != "site:app:erp.local:erpnext" {
		t.Errorf("JoinStepID() = %q", id.String())
	}

	if _, err := JoinStepID("site", ""); !errors.Is(err, ErrInvalidStepID) {
		t.Errorf("JoinStepID() with empty segment error = %v, want %v", err, ErrInvalidStepID)
	}
}

func TestMustNewStepID_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNewStepID should panic on invalid input")
		}
	}()
	_ = MustNewStepID("not valid")
}

func TestStepID_IsZero(t *testing.T) {
	var zero StepID
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if MustNewStepID("bench:cli").IsZero() {
		t.Error("constructed ID should not report IsZero")
	}
}
