package listing

import (
	"errors"
	"strings"
)

var (
	ErrNotFound             = errors.New("listing not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalid              = errors.New("invalid listing")
	ErrSubscriptionRequired = errors.New("an active subscription is required to publish")
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field that failed validation.
// It matches ErrInvalid with errors.Is.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "invalid listing: " + strings.Join(parts, ", ")
}

// Is makes errors.Is(err, ErrInvalid) true for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
