package assistant

import (
	"fmt"
	"strings"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
)

const noTitle = "(No title)"

// Result is the outcome of a successful operation.
type Result interface {
	Text() string
}

// DayListing is the result of ListEvents.
type DayListing struct {
	// Spec is the day expression as the user wrote it.
	Spec   string
	Day    dates.Date
	Events []calendar.Event
}

func (l *DayListing) Text() string {
	if len(l.Events) == 0 {
		return fmt.Sprintf("No events found on %s.", l.Spec)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Events on %s:", l.Spec)
	writeEventLines(&b, l.Events)
	return b.String()
}

// Created is the result of CreateEvent.
type Created struct {
	Event calendar.Event
	Title string
	Date  dates.Date
	Start dates.Clock
	End   dates.Clock
}

func (c *Created) Text() string {
	return fmt.Sprintf("✅ Event '%s' created for %s from %s to %s", c.Title, c.Date, c.Start, c.End)
}

// Mutation is the result of UpdateEvent and DeleteEvent.
type Mutation struct {
	// Verb is "Updated" or "Deleted".
	Verb   string
	Title  string
	Date   dates.Date
	Count  int
	Events []calendar.Event
}

func (m *Mutation) Text() string {
	return fmt.Sprintf("✅ %s %d event(s) titled '%s' on %s.", m.Verb, m.Count, m.Title, m.Date)
}

// Upcoming is the result of NextEvent. Event is nil when nothing is
// scheduled.
type Upcoming struct {
	Event *calendar.Event
}

func (u *Upcoming) Text() string {
	if u.Event == nil {
		return "No upcoming events."
	}
	return fmt.Sprintf("Next event: %s at %s", title(*u.Event), u.Event.Start.Display())
}

// WeekListing is the result of WeeklyView.
type WeekListing struct {
	Offset int
	Monday dates.Date
	Range  dates.Range
	Events []calendar.Event
}

func (w *WeekListing) Text() string {
	if len(w.Events) == 0 {
		if w.Offset == 0 {
			return "No events this week."
		}
		return fmt.Sprintf("No events in the week of %s.", w.Monday)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Events for the week of %s:", w.Monday)
	writeEventLines(&b, w.Events)
	return b.String()
}

func writeEventLines(b *strings.Builder, events []calendar.Event) {
	for _, ev := range events {
		fmt.Fprintf(b, "\n- %s at %s", title(ev), ev.Start.Display())
	}
}

func title(ev calendar.Event) string {
	if ev.Summary == "" {
		return noTitle
	}
	return ev.Summary
}
