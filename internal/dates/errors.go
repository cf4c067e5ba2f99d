package dates

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognized is returned when no resolution path produced a date.
	ErrUnrecognized = errors.New("unrecognized date")

	// ErrInvalidClock is returned for time-of-day text that is not HH:MM.
	ErrInvalidClock = errors.New("invalid time, expected HH:MM (24-hour)")
)

// ParseError reports the input that could not be resolved.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
