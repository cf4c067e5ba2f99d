package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// isoLike matches text written as a numeric year-month-day. Such input is
// only ever resolved by the strict path.
var isoLike = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// yearlessSlash matches DD/MM without a year, which the slash rule can
// accept without setting a date.
var yearlessSlash = regexp.MustCompile(`^\d{1,2}[/\\]\d{1,2}$`)

// NaturalParser turns loosely formatted text into an instant relative to base.
// ok is false when nothing in text looked like a date.
type NaturalParser interface {
	Parse(text string, base time.Time) (t time.Time, ok bool, err error)
}

// Resolver resolves day expressions against a reference location and clock.
// A Resolver is safe for concurrent use.
type Resolver struct {
	loc     *time.Location
	now     func() time.Time
	natural NaturalParser
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the source of "now". Mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithParser overrides the natural-language parser used by Resolve.
func WithParser(p NaturalParser) Option {
	return func(r *Resolver) {
		if p != nil {
			r.natural = p
		}
	}
}

// NewResolver creates a Resolver for the given reference location.
// A nil location means UTC.
func NewResolver(loc *time.Location, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	r := &Resolver{
		loc:     loc,
		now:     time.Now,
		natural: NewWhenParser(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the reference location.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the current instant in the reference location.
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Today returns the current civil date in the reference location.
func (r *Resolver) Today() Date {
	return DateOf(r.Now())
}

// ResolveStrict accepts only "today", "tomorrow" or YYYY-MM-DD.
func (r *Resolver) ResolveStrict(spec string) (Date, error) {
	if d, ok := r.relative(spec); ok {
		return d, nil
	}
	t, err := time.ParseInLocation(ISOLayout, strings.TrimSpace(spec), r.loc)
	if err != nil {
		return Date{}, &ParseError{Input: spec, Err: ErrUnrecognized}
	}
	return DateOf(t), nil
}

// Resolve tries the strict forms first and then falls back to
// natural-language parsing. Numeric dates that fail the strict path are
// rejected rather than reinterpreted; slash dates are day first (DD/MM/YYYY).
func (r *Resolver) Resolve(spec string) (Date, error) {
	if d, err := r.ResolveStrict(spec); err == nil {
		return d, nil
	}

	text := strings.TrimSpace(spec)
	if text == "" || isoLike.MatchString(text) || yearlessSlash.MatchString(text) {
		return Date{}, &ParseError{Input: spec, Err: ErrUnrecognized}
	}

	t, ok, err := r.natural.Parse(text, r.Now())
	if err != nil {
		return Date{}, &ParseError{Input: spec, Err: err}
	}
	if !ok {
		return Date{}, &ParseError{Input: spec, Err: ErrUnrecognized}
	}
	return DateOf(t.In(r.loc)), nil
}

// DayRange returns the whole day d as [midnight, next midnight) in the
// reference location.
func (r *Resolver) DayRange(d Date) Range {
	start := d.In(r.loc)
	return Range{Start: start, End: d.AddDays(1).In(r.loc)}
}

// ResolveRange resolves spec with Resolve and returns its whole-day range.
func (r *Resolver) ResolveRange(spec string) (Range, error) {
	d, err := r.Resolve(spec)
	if err != nil {
		return Range{}, err
	}
	return r.DayRange(d), nil
}

// WeekRange returns the seven-day window starting on Monday of the current
// week, shifted by offset weeks.
func (r *Resolver) WeekRange(offset int) Range {
	monday := MondayOf(r.Today()).AddDays(7 * offset)
	return Range{Start: monday.In(r.loc), End: monday.AddDays(7).In(r.loc)}
}

// MondayOf returns the Monday on or before d.
func MondayOf(d Date) Date {
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-back)
}

func (r *Resolver) relative(spec string) (Date, bool) {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "today":
		return r.Today(), true
	case "tomorrow":
		return r.Today().AddDays(1), true
	}
	return Date{}, false
}

// WhenParser adapts github.com/olebedev/when, restricted to rules that name
// a day. A result only counts when the matched text covers the whole input,
// so "3pm" or "2025/06/10" never fall back to the base date.
type WhenParser struct {
	p *when.Parser
}

// NewWhenParser creates the default natural-language parser.
func NewWhenParser() *WhenParser {
	p := when.New(nil)
	p.Add(
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		en.Deadline(rules.Override),
		en.PastTime(rules.Override),
		en.ExactMonthDate(rules.Override),
	)
	p.Add(common.All...)
	return &WhenParser{p: p}
}

// Parse implements NaturalParser.
func (w *WhenParser) Parse(text string, base time.Time) (time.Time, bool, error) {
	res, err := w.p.Parse(text, base)
	if err != nil {
		return time.Time{}, false, err
	}
	if res == nil || !covers(res.Text, text) {
		return time.Time{}, false, nil
	}
	return res.Time, true, nil
}

func covers(matched, input string) bool {
	norm := func(s string) string {
		s = strings.ToLower(strings.Trim(s, " \t,.;:!?"))
		return strings.TrimSpace(strings.TrimPrefix(s, "on "))
	}
	return norm(matched) == norm(input)
}
