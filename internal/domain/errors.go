package domain

import (
	"errors"
	"strings"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("operation not permitted for this user")
)

// ValidationError carries every client-side rule a request broke, in the order checked.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidationError returns nil when there are no problems.
func NewValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	out := make([]string, len(problems))
	copy(out, problems)
	return &ValidationError{Problems: out}
}
