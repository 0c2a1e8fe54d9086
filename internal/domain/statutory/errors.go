package statutory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrComputationOverflow = errors.New("computation overflow")
	ErrNoRuleSet           = errors.New("no rule set effective for date")
	ErrInvalidRuleSet      = errors.New("invalid rule set")
)

// InputError describes a rejected calculation input. It unwraps to
// ErrComputationOverflow for non-finite numbers and ErrInvalidInput otherwise.
type InputError struct {
	Field  string
	Reason string
	kind   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Unwrap(), e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	if e.kind == nil {
		return ErrInvalidInput
	}
	return e.kind
}

func invalidInput(field, reason string) error {
	return &InputError{Field: field, Reason: reason, kind: ErrInvalidInput}
}
