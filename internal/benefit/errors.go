package benefit

import (
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// ValidationError reports structurally invalid input. It is always fatal for
// the operation that produced it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ReferenceError is returned when a combination names a strategy that is not a
// row of the current matrix (or has no cost).
type ReferenceError struct {
	Strategy   string
	Suggestion string
}

func (e *ReferenceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown strategy %q (did you mean %q?)", e.Strategy, e.Suggestion)
	}
	return fmt.Sprintf("unknown strategy %q", e.Strategy)
}

func (e *ReferenceError) Unwrap() error { return ErrUnknownStrategy }

// maxSuggestDistance bounds how different a suggestion may be from the
// requested name before it stops being useful.
const maxSuggestDistance = 3

func unknownStrategy(name string, known []string) error {
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		d := levenshtein.ComputeDistance(name, k)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return &ReferenceError{Strategy: name, Suggestion: best}
}
