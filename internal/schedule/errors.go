package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFormat reports an "HH:MM" value that does not parse or
	// is not on a half-hour boundary.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrConfiguration is fatal: a mandatory input or a required field of
	// the schedule map is missing or inconsistent.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingOptionalInput marks an optional input that was absent or
	// unreadable; callers substitute a default and continue.
	ErrMissingOptionalInput = errors.New("missing optional input")

	// ErrMalformedRule marks a single rule that was skipped.
	ErrMalformedRule = errors.New("malformed rule")

	// ErrNoEventsGenerated is returned by the event projector when the
	// rule set yields no events inside the projected range.
	ErrNoEventsGenerated = errors.New("no events generated")
)

// MalformedRuleError locates a rejected rule in its input file.
type MalformedRuleError struct {
	Source string
	Row    int
	Field  string
	Value  string
	Err    error
}

func (e *MalformedRuleError) Error() string {
	msg := fmt.Sprintf("%s: %s row %d: field %q", ErrMalformedRule, e.Source, e.Row, e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is(err, ErrMalformedRule) match every MalformedRuleError.
func (e *MalformedRuleError) Is(target error) bool {
	return target == ErrMalformedRule
}

func (e *MalformedRuleError) Unwrap() error {
	return e.Err
}
