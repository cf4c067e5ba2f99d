package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const icsProductID = "-//calmate//calmate//EN"

// WriteICS encodes events as a single VCALENDAR.
func WriteICS(w io.Writer, events []Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	stamp := time.Now().UTC()
	for _, ev := range events {
		vevent, err := toVEvent(ev, stamp)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, vevent)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toVEvent(ev Event, stamp time.Time) (*ical.Component, error) {
	vevent := ical.NewComponent(ical.CompEvent)

	uid := ev.ID
	if uid == "" {
		uid = uuid.NewString()
	}
	vevent.Props.SetText(ical.PropUID, uid+"@calmate")
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	if ev.Summary != "" {
		vevent.Props.SetText(ical.PropSummary, ev.Summary)
	}
	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}

	if err := setICSTime(vevent, ical.PropDateTimeStart, ev.Start); err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	if !ev.End.IsZero() {
		if err := setICSTime(vevent, ical.PropDateTimeEnd, ev.End); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
	}

	for _, line := range ev.Recurrence {
		name, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		prop := ical.NewProp(strings.ToUpper(name))
		prop.Value = value
		vevent.Props[prop.Name] = append(vevent.Props[prop.Name], *prop)
	}
	return vevent, nil
}

func setICSTime(vevent *ical.Component, name string, t EventTime) error {
	if t.IsAllDay() {
		d, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return fmt.Errorf("invalid %s date %q: %w", name, t.Date, err)
		}
		prop := ical.NewProp(name)
		prop.SetDate(d)
		vevent.Props.Set(prop)
		return nil
	}
	v, err := t.Instant(time.UTC)
	if err != nil {
		return err
	}
	vevent.Props.SetDateTime(name, v.UTC())
	return nil
}

// ReadICS decodes every VEVENT in r. Times are interpreted in loc when the
// file does not carry a zone.
func ReadICS(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	dec := ical.NewDecoder(r)

	var events []Event
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, err := fromVEvent(comp, loc)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func fromVEvent(comp *ical.Component, loc *time.Location) (Event, error) {
	var ev Event
	if p := comp.Props.Get(ical.PropUID); p != nil {
		ev.ID = strings.TrimSuffix(p.Value, "@calmate")
	}
	if p := comp.Props.Get(ical.PropSummary); p != nil {
		ev.Summary = unescapeText(p.Value)
	}
	if p := comp.Props.Get(ical.PropDescription); p != nil {
		ev.Description = unescapeText(p.Value)
	}
	if p := comp.Props.Get(ical.PropLocation); p != nil {
		ev.Location = unescapeText(p.Value)
	}

	var err error
	if ev.Start, err = eventTimeFromProp(comp.Props.Get(ical.PropDateTimeStart), loc); err != nil {
		return Event{}, fmt.Errorf("event %q: invalid DTSTART: %w", ev.Summary, err)
	}
	if ev.End, err = eventTimeFromProp(comp.Props.Get(ical.PropDateTimeEnd), loc); err != nil {
		return Event{}, fmt.Errorf("event %q: invalid DTEND: %w", ev.Summary, err)
	}
	if ev.End.IsZero() {
		ev.End = ev.Start
	}

	for _, name := range []string{ical.PropRecurrenceRule, ical.PropExceptionDates, ical.PropRecurrenceDates} {
		for _, p := range comp.Props.Values(name) {
			ev.Recurrence = append(ev.Recurrence, name+":"+p.Value)
		}
	}
	return ev, nil
}

func eventTimeFromProp(p *ical.Prop, loc *time.Location) (EventTime, error) {
	if p == nil {
		return EventTime{}, nil
	}
	if strings.EqualFold(p.Params.Get(ical.ParamValue), string(ical.ValueDate)) || len(p.Value) == len("20060102") {
		d, err := time.ParseInLocation("20060102", p.Value, loc)
		if err != nil {
			return EventTime{}, err
		}
		return EventTime{Date: d.Format("2006-01-02")}, nil
	}
	t, err := p.DateTime(loc)
	if err != nil {
		return EventTime{}, err
	}
	return TimedAt(t, t.Location().String()), nil
}

var icsTextUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return icsTextUnescaper.Replace(s)
}
