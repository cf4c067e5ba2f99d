package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
	"github.com/teemow/calmate/internal/logging"
)

// Operation names used in OpError.Op and log attributes.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpNext   = "next"
	OpWeek   = "week"
)

// DefaultCalendarID is the calendar used when Options.CalendarID is empty.
const DefaultCalendarID = "primary"

// NextEvent asks for nextEventLookahead events and doubles the limit while
// every returned event is already in progress, up to maxNextEventLookahead.
const (
	nextEventLookahead    = 10
	maxNextEventLookahead = 2560
)

// Options configures an Assistant.
type Options struct {
	CalendarID string

	// EventTimeZone is the IANA zone attached to created and rescheduled
	// events. Empty means the resolver's reference location.
	EventTimeZone string

	Logger *slog.Logger
}

// EventDraft describes an event to create.
type EventDraft struct {
	Title       string
	Date        string
	StartTime   string
	EndTime     string
	Description string
	Recurrence  []string
}

// UpdateRequest moves every event titled Title on Date to a new time slot on
// the same day.
type UpdateRequest struct {
	Title    string
	Date     string
	NewStart string
	NewEnd   string
}

// DeleteRequest removes every event titled Title on Date.
type DeleteRequest struct {
	Title string
	Date  string
}

// Assistant performs calendar operations against a Service. It holds no
// mutable state and is safe for concurrent use.
type Assistant struct {
	svc        calendar.Service
	resolver   *dates.Resolver
	calendarID string
	eventLoc   *time.Location
	eventTZ    string
	logger     *slog.Logger
}

// New creates an Assistant.
func New(svc calendar.Service, resolver *dates.Resolver, opts Options) (*Assistant, error) {
	if svc == nil {
		return nil, fmt.Errorf("calendar service cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("date resolver cannot be nil")
	}

	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	eventLoc := resolver.Location()
	if opts.EventTimeZone != "" {
		loc, err := time.LoadLocation(opts.EventTimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid event time zone %q: %w", opts.EventTimeZone, err)
		}
		eventLoc = loc
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Assistant{
		svc:        svc,
		resolver:   resolver,
		calendarID: calendarID,
		eventLoc:   eventLoc,
		eventTZ:    eventLoc.String(),
		logger:     logger,
	}, nil
}

// CalendarID returns the calendar the assistant operates on.
func (a *Assistant) CalendarID() string {
	return a.calendarID
}

// EventTimeZone returns the zone attached to created and moved events.
func (a *Assistant) EventTimeZone() string {
	return a.eventTZ
}

// Resolver returns the date resolver.
func (a *Assistant) Resolver() *dates.Resolver {
	return a.resolver
}

// ListEvents lists the events on the day described by daySpec.
func (a *Assistant) ListEvents(ctx context.Context, daySpec string) (*DayListing, error) {
	day, err := a.resolver.Resolve(daySpec)
	if err != nil {
		return nil, &OpError{Op: OpList, Kind: KindDateParse, Input: daySpec, Err: err}
	}

	events, err := a.listRange(ctx, a.resolver.DayRange(day))
	if err != nil {
		return nil, &OpError{Op: OpList, Kind: KindRemote, Err: err}
	}

	a.logger.Debug("listed events",
		logging.Operation(OpList),
		slog.String("day", day.String()),
		slog.Int("count", len(events)))

	return &DayListing{Spec: daySpec, Day: day, Events: events}, nil
}

// CreateEvent creates a single event. Only "today", "tomorrow" and
// YYYY-MM-DD are accepted as the date.
func (a *Assistant) CreateEvent(ctx context.Context, draft EventDraft) (*Created, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &OpError{Op: OpCreate, Kind: KindValidation, Err: errEmptyTitle}
	}

	day, err := a.resolver.ResolveStrict(draft.Date)
	if err != nil {
		return nil, &OpError{Op: OpCreate, Kind: KindDateParse, Input: draft.Date, Err: err}
	}

	start, end, err := parseSlot(draft.StartTime, draft.EndTime)
	if err != nil {
		return nil, &OpError{Op: OpCreate, Kind: KindValidation, Input: inputOf(err), Err: err}
	}

	if err := calendar.ValidateRecurrence(draft.Recurrence); err != nil {
		return nil, &OpError{Op: OpCreate, Kind: KindValidation, Err: err}
	}

	created, err := a.svc.Insert(ctx, a.calendarID, calendar.Event{
		Summary:     title,
		Description: draft.Description,
		Start:       calendar.TimedAt(day.At(start, a.eventLoc), a.eventTZ),
		End:         calendar.TimedAt(day.At(end, a.eventLoc), a.eventTZ),
		Recurrence:  draft.Recurrence,
	})
	if err != nil {
		a.logger.Warn("create event failed", logging.Operation(OpCreate), logging.Calendar(a.calendarID), logging.Err(err))
		return nil, &OpError{Op: OpCreate, Kind: KindRemote, Err: err}
	}

	a.logger.Info("created event", logging.Operation(OpCreate), logging.EventID(created.ID))

	return &Created{Event: *created, Title: title, Date: day, Start: start, End: end}, nil
}

// UpdateEvent moves every event titled req.Title on req.Date. When a remote
// update fails part way, the returned Mutation counts the events already
// moved alongside the error.
func (a *Assistant) UpdateEvent(ctx context.Context, req UpdateRequest) (*Mutation, error) {
	day, err := a.resolver.Resolve(req.Date)
	if err != nil {
		return nil, &OpError{Op: OpUpdate, Kind: KindDateParse, Input: req.Date, Err: err}
	}

	start, end, err := parseSlot(req.NewStart, req.NewEnd)
	if err != nil {
		return nil, &OpError{Op: OpUpdate, Kind: KindValidation, Input: inputOf(err), Err: err}
	}

	matches, err := a.findOnDay(ctx, OpUpdate, req.Title, day)
	if err != nil {
		return nil, err
	}

	patch := calendar.Event{
		Start: calendar.TimedAt(day.At(start, a.eventLoc), a.eventTZ),
		End:   calendar.TimedAt(day.At(end, a.eventLoc), a.eventTZ),
	}

	res := &Mutation{Verb: "Updated", Title: req.Title, Date: day}
	for _, ev := range matches {
		updated, err := a.svc.Update(ctx, a.calendarID, ev.ID, patch)
		if err != nil {
			a.logger.Warn("update event failed", logging.Operation(OpUpdate), logging.EventID(ev.ID), logging.Err(err))
			return res, &OpError{Op: OpUpdate, Kind: KindRemote, Err: err}
		}
		res.Count++
		res.Events = append(res.Events, *updated)
	}

	a.logger.Info("updated events", logging.Operation(OpUpdate), slog.Int("count", res.Count))
	return res, nil
}

// DeleteEvent deletes every event titled req.Title on req.Date. No delete is
// issued when nothing matches.
func (a *Assistant) DeleteEvent(ctx context.Context, req DeleteRequest) (*Mutation, error) {
	day, err := a.resolver.Resolve(req.Date)
	if err != nil {
		return nil, &OpError{Op: OpDelete, Kind: KindDateParse, Input: req.Date, Err: err}
	}

	matches, err := a.findOnDay(ctx, OpDelete, req.Title, day)
	if err != nil {
		return nil, err
	}

	res := &Mutation{Verb: "Deleted", Title: req.Title, Date: day}
	for _, ev := range matches {
		if err := a.svc.Delete(ctx, a.calendarID, ev.ID); err != nil {
			a.logger.Warn("delete event failed", logging.Operation(OpDelete), logging.EventID(ev.ID), logging.Err(err))
			return res, &OpError{Op: OpDelete, Kind: KindRemote, Err: err}
		}
		res.Count++
		res.Events = append(res.Events, ev)
	}

	a.logger.Info("deleted events", logging.Operation(OpDelete), slog.Int("count", res.Count))
	return res, nil
}

// NextEvent returns the first event starting at or after now.
func (a *Assistant) NextEvent(ctx context.Context) (*Upcoming, error) {
	now := a.resolver.Now()

	for limit := int64(nextEventLookahead); ; limit *= 2 {
		events, err := a.svc.List(ctx, a.calendarID, calendar.ListQuery{
			TimeMin:      now,
			SingleEvents: true,
			OrderByStart: true,
			MaxResults:   limit,
		})
		if err != nil {
			return nil, &OpError{Op: OpNext, Kind: KindRemote, Err: err}
		}

		// The service also returns events already in progress.
		for _, ev := range events {
			start, err := ev.Start.Instant(a.resolver.Location())
			if err != nil || start.Before(now) {
				continue
			}
			ev := ev
			return &Upcoming{Event: &ev}, nil
		}

		if int64(len(events)) < limit || limit >= maxNextEventLookahead {
			return &Upcoming{}, nil
		}
	}
}

// WeeklyView lists the events of the Monday-to-Sunday week offset weeks
// from the current one.
func (a *Assistant) WeeklyView(ctx context.Context, weekOffset int) (*WeekListing, error) {
	rng := a.resolver.WeekRange(weekOffset)

	events, err := a.listRange(ctx, rng)
	if err != nil {
		return nil, &OpError{Op: OpWeek, Kind: KindRemote, Err: err}
	}

	return &WeekListing{
		Offset: weekOffset,
		Monday: dates.DateOf(rng.Start),
		Range:  rng,
		Events: events,
	}, nil
}

// Events returns the raw events in rng, ordered by start.
func (a *Assistant) Events(ctx context.Context, rng dates.Range) ([]calendar.Event, error) {
	events, err := a.listRange(ctx, rng)
	if err != nil {
		return nil, &OpError{Op: OpList, Kind: KindRemote, Err: err}
	}
	return events, nil
}

func (a *Assistant) listRange(ctx context.Context, rng dates.Range) ([]calendar.Event, error) {
	return a.svc.List(ctx, a.calendarID, calendar.ListQuery{
		TimeMin:      rng.Start,
		TimeMax:      rng.End,
		SingleEvents: true,
		OrderByStart: true,
	})
}

// findOnDay lists day and returns the events titled title, or a not-found
// OpError.
func (a *Assistant) findOnDay(ctx context.Context, op, title string, day dates.Date) ([]calendar.Event, error) {
	events, err := a.listRange(ctx, a.resolver.DayRange(day))
	if err != nil {
		return nil, &OpError{Op: op, Kind: KindRemote, Err: err}
	}

	matches := calendar.FindByTitle(events, title)
	if len(matches) == 0 {
		return nil, &OpError{Op: op, Kind: KindNotFound, Input: title, Err: &NoMatchError{Title: title, Date: day}}
	}
	return matches, nil
}

// parseSlot parses a start and end clock and checks their order.
func parseSlot(startText, endText string) (dates.Clock, dates.Clock, error) {
	start, err := dates.ParseClock(startText)
	if err != nil {
		return dates.Clock{}, dates.Clock{}, err
	}
	end, err := dates.ParseClock(endText)
	if err != nil {
		return dates.Clock{}, dates.Clock{}, err
	}
	if !start.Before(end) {
		return dates.Clock{}, dates.Clock{}, fmt.Errorf("%w (%s to %s)", errInvertedRange, start, end)
	}
	return start, end, nil
}

// inputOf returns the offending text of a clock parse error.
func inputOf(err error) string {
	var perr *dates.ParseError
	if errors.As(err, &perr) {
		return perr.Input
	}
	return ""
}
