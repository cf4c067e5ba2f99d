package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxExpansion bounds series expansion when a query has no TimeMax.
const maxExpansion = 366 * 24 * time.Hour

// ErrEventNotFound is returned when an event id does not exist.
var ErrEventNotFound = errors.New("event not found")

// IsNotFound reports whether err means the event does not exist, either
// from MemoryService or as a 404/410 from the Google API.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrEventNotFound) {
		return true
	}
	code := StatusCode(err)
	return code == http.StatusNotFound || code == http.StatusGone
}

// MemoryService is an in-process Service. Recurring events are expanded
// into single instances when a query asks for SingleEvents. It is safe for
// concurrent use.
type MemoryService struct {
	mu        sync.RWMutex
	calendars map[string]*memoryCalendar
	loc       *time.Location
	newID     func() string
}

type memoryCalendar struct {
	events map[string]Event
	// cancelled holds instance ids removed from a recurring series.
	cancelled map[string]struct{}
}

// MemoryOption configures a MemoryService.
type MemoryOption func(*MemoryService)

// WithLocation sets the zone used to interpret all-day dates.
func WithLocation(loc *time.Location) MemoryOption {
	return func(m *MemoryService) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(fn func() string) MemoryOption {
	return func(m *MemoryService) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewMemoryService creates an empty MemoryService.
func NewMemoryService(opts ...MemoryOption) *MemoryService {
	m := &MemoryService{
		calendars: make(map[string]*memoryCalendar),
		loc:       time.UTC,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Service = (*MemoryService)(nil)

func (m *MemoryService) calendar(id string) *memoryCalendar {
	c, ok := m.calendars[id]
	if !ok {
		c = &memoryCalendar{
			events:    make(map[string]Event),
			cancelled: make(map[string]struct{}),
		}
		m.calendars[id] = c
	}
	return c
}

// List implements Service.
func (m *MemoryService) List(ctx context.Context, calendarID string, q ListQuery) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.calendars[calendarID]
	if !ok {
		return []Event{}, nil
	}

	from, to := q.TimeMin, q.TimeMax
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	var out []Event
	for _, ev := range c.events {
		if q.SingleEvents && ev.IsRecurring() {
			expandFrom, expandTo := m.expansionWindow(ev, q)
			instances, err := expandInstances(ev, expandFrom, expandTo, m.loc)
			if err != nil {
				return nil, err
			}
			for _, inst := range instances {
				if _, gone := c.cancelled[inst.ID]; gone {
					continue
				}
				if _, moved := c.events[inst.ID]; moved {
					continue
				}
				if m.overlaps(inst, from, to) {
					out = append(out, inst)
				}
			}
			continue
		}
		if m.overlaps(ev, from, to) {
			out = append(out, ev)
		}
	}

	if q.Query != "" {
		filtered := out[:0]
		for _, ev := range out {
			if matchesQuery(ev, q.Query) {
				filtered = append(filtered, ev)
			}
		}
		out = filtered
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Start.Instant(m.loc)
		b, _ := out[j].Start.Instant(m.loc)
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		return a.Before(b)
	})

	if q.MaxResults > 0 && int64(len(out)) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

// Insert implements Service.
func (m *MemoryService) Insert(ctx context.Context, calendarID string, ev Event) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ev.Start.IsZero() || ev.End.IsZero() {
		return nil, fmt.Errorf("failed to create event: start and end are required")
	}
	if err := ValidateRecurrence(ev.Recurrence); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ev.ID = m.newID()
	if ev.Status == "" {
		ev.Status = "confirmed"
	}
	m.calendar(calendarID).events[ev.ID] = ev
	return &ev, nil
}

// Update implements Service. Instance ids of a recurring series are
// detached from the series and stored as standalone events.
func (m *MemoryService) Update(ctx context.Context, calendarID, eventID string, ev Event) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.calendar(calendarID)
	existing, ok := c.events[eventID]
	if !ok {
		inst, found := m.lookupInstance(c, eventID)
		if !found {
			return nil, fmt.Errorf("failed to update event %s: %w", eventID, ErrEventNotFound)
		}
		existing = inst
	}

	if ev.Summary != "" {
		existing.Summary = ev.Summary
	}
	if ev.Description != "" {
		existing.Description = ev.Description
	}
	if ev.Location != "" {
		existing.Location = ev.Location
	}
	if !ev.Start.IsZero() {
		existing.Start = ev.Start
	}
	if !ev.End.IsZero() {
		existing.End = ev.End
	}
	if len(ev.Recurrence) > 0 {
		if err := ValidateRecurrence(ev.Recurrence); err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		existing.Recurrence = ev.Recurrence
	}

	c.events[eventID] = existing
	return &existing, nil
}

// Delete implements Service.
func (m *MemoryService) Delete(ctx context.Context, calendarID, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.calendar(calendarID)
	if _, ok := c.events[eventID]; ok {
		delete(c.events, eventID)
		if _, isInstance := splitInstanceID(eventID); isInstance {
			c.cancelled[eventID] = struct{}{}
		}
		return nil
	}
	if _, ok := m.lookupInstance(c, eventID); ok {
		c.cancelled[eventID] = struct{}{}
		return nil
	}
	return fmt.Errorf("failed to delete event %s: %w", eventID, ErrEventNotFound)
}

// Len returns the number of stored events across all calendars, counting a
// recurring series once.
func (m *MemoryService) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.calendars {
		n += len(c.events)
	}
	return n
}

// lookupInstance resolves an instance id to the generated instance.
func (m *MemoryService) lookupInstance(c *memoryCalendar, id string) (Event, bool) {
	baseID, ok := splitInstanceID(id)
	if !ok {
		return Event{}, false
	}
	base, ok := c.events[baseID]
	if !ok || !base.IsRecurring() {
		return Event{}, false
	}
	if _, gone := c.cancelled[id]; gone {
		return Event{}, false
	}

	at, err := time.Parse(instanceIDLayout, id[len(baseID)+1:])
	if err != nil {
		return Event{}, false
	}
	instances, err := expandInstances(base, at, at.Add(time.Second), m.loc)
	if err != nil || len(instances) == 0 {
		return Event{}, false
	}
	return instances[0], true
}

// overlaps reports whether ev intersects [from, to).
func (m *MemoryService) overlaps(ev Event, from, to time.Time) bool {
	start, err := ev.Start.Instant(m.loc)
	if err != nil {
		return false
	}
	end, err := ev.End.Instant(m.loc)
	if err != nil || !end.After(start) {
		end = start
	}
	if !start.Before(to) {
		return false
	}
	if from.IsZero() {
		return true
	}
	// Zero-length events are kept when they start inside the window.
	if end.Equal(start) {
		return !start.Before(from)
	}
	return end.After(from)
}

// expansionWindow bounds the expansion of an open-ended series. Instances
// ending after TimeMin may start before it.
func (m *MemoryService) expansionWindow(ev Event, q ListQuery) (time.Time, time.Time) {
	from := q.TimeMin
	if from.IsZero() {
		from, _ = ev.Start.Instant(m.loc)
	}
	from = from.Add(-eventSpan(ev, m.loc))

	to := q.TimeMax
	if to.IsZero() {
		to = from.Add(maxExpansion)
	}
	return from, to
}

func eventSpan(ev Event, loc *time.Location) time.Duration {
	start, err := ev.Start.Instant(loc)
	if err != nil {
		return 0
	}
	end, err := ev.End.Instant(loc)
	if err != nil || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

func matchesQuery(ev Event, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(ev.Summary), q) ||
		strings.Contains(strings.ToLower(ev.Description), q) ||
		strings.Contains(strings.ToLower(ev.Location), q)
}
