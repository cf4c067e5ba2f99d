package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const instanceIDLayout = "20060102T150405Z"

// ValidateRecurrence checks recurrence lines before they are sent to the
// service. RRULE and EXRULE lines must parse; RDATE and EXDATE lines are
// passed through.
func ValidateRecurrence(lines []string) error {
	for _, line := range lines {
		prop, value, ok := splitRecurrenceLine(line)
		if !ok {
			return fmt.Errorf("invalid recurrence line %q: expected NAME:VALUE", line)
		}
		switch prop {
		case "RRULE", "EXRULE":
			if _, err := rrule.StrToRRule(value); err != nil {
				return fmt.Errorf("invalid recurrence rule %q: %w", line, err)
			}
		case "RDATE", "EXDATE":
		default:
			return fmt.Errorf("invalid recurrence line %q: unsupported property %s", line, prop)
		}
	}
	return nil
}

// splitRecurrenceLine returns the upper-cased property name without
// parameters and the value of a line such as "EXDATE;TZID=UTC:20250601T090000".
func splitRecurrenceLine(line string) (prop, value string, ok bool) {
	name, value, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || value == "" {
		return "", "", false
	}
	prop = strings.ToUpper(name)
	if i := strings.IndexByte(prop, ';'); i >= 0 {
		prop = prop[:i]
	}
	return prop, value, true
}

// IsRecurring reports whether ev carries at least one RRULE.
func (e Event) IsRecurring() bool {
	for _, line := range e.Recurrence {
		if prop, _, ok := splitRecurrenceLine(line); ok && prop == "RRULE" {
			return true
		}
	}
	return false
}

// expandInstances returns the single instances of a recurring event that
// start within [from, to). Instance ids follow the remote convention of
// <base id>_<UTC start>.
func expandInstances(ev Event, from, to time.Time, loc *time.Location) ([]Event, error) {
	start, err := ev.Start.Instant(loc)
	if err != nil {
		return nil, err
	}
	end, err := ev.End.Instant(loc)
	if err != nil {
		end = start
	}
	duration := end.Sub(start)

	var set rrule.Set
	for _, line := range ev.Recurrence {
		prop, value, ok := splitRecurrenceLine(line)
		if !ok {
			continue
		}
		switch prop {
		case "RRULE":
			r, err := rrule.StrToRRule(value)
			if err != nil {
				return nil, fmt.Errorf("invalid recurrence rule %q: %w", line, err)
			}
			r.DTStart(start)
			set.RRule(r)
		case "EXDATE":
			for _, raw := range strings.Split(value, ",") {
				if t, ok := parseRecurrenceDate(raw, start.Location()); ok {
					set.ExDate(t)
				}
			}
		}
	}

	// Between is inclusive of both ends when inc is true; the window is
	// half-open so instances starting exactly at to are dropped below.
	times := set.Between(from.In(start.Location()), to.In(start.Location()), true)

	out := make([]Event, 0, len(times))
	for _, t := range times {
		if !t.Before(to) {
			continue
		}
		inst := ev
		inst.ID = instanceID(ev.ID, t)
		inst.Recurrence = nil
		if ev.Start.IsAllDay() {
			d := t.Format("2006-01-02")
			inst.Start = EventTime{Date: d}
			inst.End = EventTime{Date: t.Add(duration).Format("2006-01-02")}
		} else {
			inst.Start = TimedAt(t, ev.Start.TimeZone)
			inst.End = TimedAt(t.Add(duration), ev.End.TimeZone)
		}
		out = append(out, inst)
	}
	return out, nil
}

func instanceID(baseID string, start time.Time) string {
	return baseID + "_" + start.UTC().Format(instanceIDLayout)
}

// splitInstanceID returns the base id of an instance id.
func splitInstanceID(id string) (string, bool) {
	i := strings.LastIndex(id, "_")
	if i <= 0 {
		return "", false
	}
	if _, err := time.Parse(instanceIDLayout, id[i+1:]); err != nil {
		return "", false
	}
	return id[:i], true
}

func parseRecurrenceDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(instanceIDLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("20060102T150405", raw, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("20060102", raw, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
