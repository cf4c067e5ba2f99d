// Package assistant implements the calendar operations behind the
// conversational tools: list a day, create, reschedule and delete events by
// title, show the next event and a weekly view.
//
// Every operation returns a typed result and an error. Errors are always
// *OpError values carrying a Kind, and Render turns a result or an error
// into the single line of text shown to the user. Nothing in this package
// retries a failed remote call.
package assistant
