package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calmate/internal/dates"
)

// EventTime is the start or end of an event as the remote service reports it.
// Timed events carry DateTime (RFC3339), all-day events carry Date.
type EventTime struct {
	DateTime string
	Date     string
	TimeZone string
}

// TimedAt returns an EventTime for instant t labelled with the given zone.
func TimedAt(t time.Time, timeZone string) EventTime {
	return EventTime{DateTime: t.Format(time.RFC3339), TimeZone: timeZone}
}

// AllDayOn returns an EventTime for the whole day d.
func AllDayOn(d dates.Date) EventTime {
	return EventTime{Date: d.String()}
}

// IsAllDay reports whether the time only carries a date.
func (t EventTime) IsAllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// IsZero reports whether neither a date-time nor a date is set.
func (t EventTime) IsZero() bool {
	return t.DateTime == "" && t.Date == ""
}

// Display prefers the date-time text and falls back to the date.
func (t EventTime) Display() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Instant resolves the time to an instant. All-day dates are taken as
// midnight in loc.
func (t EventTime) Instant(loc *time.Location) (time.Time, error) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid event date-time %q: %w", t.DateTime, err)
		}
		return v, nil
	}
	if t.Date != "" {
		if loc == nil {
			loc = time.UTC
		}
		v, err := time.ParseInLocation(dates.ISOLayout, t.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid event date %q: %w", t.Date, err)
		}
		return v, nil
	}
	return time.Time{}, fmt.Errorf("event time is empty")
}

// Event is a calendar event. Summary is empty when the remote title is
// missing.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       EventTime
	End         EventTime
	Recurrence  []string // RRULE, EXRULE, RDATE, EXDATE
	Status      string
	HTMLLink    string
}

// ListQuery selects events for List.
type ListQuery struct {
	TimeMin time.Time
	TimeMax time.Time

	// SingleEvents expands recurring events into their instances.
	SingleEvents bool

	// OrderByStart sorts by start time. Only valid with SingleEvents.
	OrderByStart bool

	// MaxResults limits the number of events returned. Zero means all.
	MaxResults int64

	// Query is a free text filter.
	Query string
}

// Service is a remote calendar.
type Service interface {
	List(ctx context.Context, calendarID string, q ListQuery) ([]Event, error)
	Insert(ctx context.Context, calendarID string, ev Event) (*Event, error)
	Update(ctx context.Context, calendarID, eventID string, ev Event) (*Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
}

// fromAPI converts a Google Calendar event. A nil event converts to the zero
// Event.
func fromAPI(ev *gcal.Event) Event {
	if ev == nil {
		return Event{}
	}
	out := Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Recurrence:  ev.Recurrence,
		Status:      ev.Status,
		HTMLLink:    ev.HtmlLink,
	}
	if ev.Start != nil {
		out.Start = EventTime{DateTime: ev.Start.DateTime, Date: ev.Start.Date, TimeZone: ev.Start.TimeZone}
	}
	if ev.End != nil {
		out.End = EventTime{DateTime: ev.End.DateTime, Date: ev.End.Date, TimeZone: ev.End.TimeZone}
	}
	return out
}

// toAPITime converts an EventTime. Zero times convert to nil so they are
// omitted from the request body.
func toAPITime(t EventTime) *gcal.EventDateTime {
	if t.IsZero() {
		return nil
	}
	if t.IsAllDay() {
		return &gcal.EventDateTime{Date: t.Date}
	}
	return &gcal.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone}
}

func toAPI(ev Event) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       toAPITime(ev.Start),
		End:         toAPITime(ev.End),
	}
	if len(ev.Recurrence) > 0 {
		out.Recurrence = ev.Recurrence
	}
	return out
}
