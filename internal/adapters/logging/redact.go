package logging

import (
	"slices"
	"strings"
)

const mask = "********"

// Redactor masks configured secret values in text.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a Redactor for secrets. Empty values are ignored.
func NewRedactor(secrets ...string) Redactor {
	return Redactor{}.With(secrets...)
}

// With returns a copy that also masks secrets.
func (r Redactor) With(secrets ...string) Redactor {
	next := Redactor{secrets: slices.Clone(r.secrets)}
	for _, s := range secrets {
		if s != "" && !slices.Contains(next.secrets, s) {
			next.secrets = append(next.secrets, s)
		}
	}
	// Longest first, so a secret containing another is masked whole.
	slices.SortStableFunc(next.secrets, func(a, b string) int { return len(b) - len(a) })
	return next
}

// Redact replaces every occurrence of a secret in s.
func (r Redactor) Redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}
