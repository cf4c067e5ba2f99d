package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/calmate/internal/dates"
)

const failurePrefix = "❌ "

// Render converts the outcome of an operation into the text shown to the
// user. Failures render as a single line starting with a cross mark; a
// title that matched nothing renders as a plain informational line.
func Render(res Result, err error) string {
	if err == nil {
		if res == nil {
			return ""
		}
		return res.Text()
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		return failurePrefix + oneLine(err.Error())
	}

	switch opErr.Kind {
	case KindNotFound:
		var nm *NoMatchError
		if errors.As(err, &nm) {
			return fmt.Sprintf("No event titled '%s' found on %s.", nm.Title, nm.Date)
		}
		return oneLine(opErr.Err.Error())

	case KindDateParse:
		if opErr.Op == OpCreate {
			return failurePrefix + "Unrecognized date format. Use 'today', 'tomorrow', or YYYY-MM-DD."
		}
		return failurePrefix + fmt.Sprintf("Unrecognized date '%s'. Try 'today', 'tomorrow', 'next friday' or YYYY-MM-DD.", opErr.Input)

	case KindValidation:
		var perr *dates.ParseError
		if errors.As(err, &perr) {
			return failurePrefix + fmt.Sprintf("Invalid time '%s'. Use HH:MM in 24-hour format.", perr.Input)
		}
		return failurePrefix + oneLine(capitalize(opErr.Err.Error()))

	case KindRemote:
		msg := fmt.Sprintf("%s: %v", remoteFailure(opErr.Op), opErr.Err)
		if m, ok := res.(*Mutation); ok && m != nil && m.Count > 0 {
			msg += fmt.Sprintf(" (%d event(s) %s before the failure)", m.Count, strings.ToLower(m.Verb))
		}
		return failurePrefix + oneLine(msg)
	}

	return failurePrefix + oneLine(err.Error())
}

func remoteFailure(op string) string {
	switch op {
	case OpCreate:
		return "Failed to create event"
	case OpUpdate:
		return "Failed to update event"
	case OpDelete:
		return "Failed to delete event"
	}
	return "Error retrieving events"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
