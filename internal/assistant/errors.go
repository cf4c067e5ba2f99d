package assistant

import (
	"errors"
	"fmt"

	"github.com/teemow/calmate/internal/dates"
)

// Kind classifies operation failures.
type Kind int

const (
	// KindDateParse means the day expression could not be resolved.
	KindDateParse Kind = iota + 1
	// KindNotFound means no event matched the requested title. It is
	// informational rather than a failure.
	KindNotFound
	// KindRemote means the calendar service call failed.
	KindRemote
	// KindValidation means the request was rejected before any remote call.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindDateParse:
		return "date_parse"
	case KindNotFound:
		return "not_found"
	case KindRemote:
		return "remote"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// OpError is the error returned by every Assistant operation.
type OpError struct {
	Op    string
	Kind  Kind
	Input string
	Err   error
}

func (e *OpError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s: %s %q: %v", e.Op, e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not an *OpError.
func KindOf(err error) Kind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return 0
}

// NoMatchError reports that no event on Date carries Title.
type NoMatchError struct {
	Title string
	Date  dates.Date
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no event titled '%s' found on %s", e.Title, e.Date)
}

var (
	errEmptyTitle    = errors.New("title must not be empty")
	errInvertedRange = errors.New("end time must be after start time")
)
