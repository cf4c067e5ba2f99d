// Package dates resolves free-form day expressions into civil dates and
// half-open time ranges.
//
// Two entry points exist on purpose. ResolveStrict only understands
// "today", "tomorrow" and ISO dates (YYYY-MM-DD) and is used where a
// misread date would create the wrong event. Resolve additionally falls back
// to natural-language parsing ("next friday", "may 10th", "in 3 days").
//
// All resolution happens relative to a Resolver's reference location and
// clock:
//
//	r := dates.NewResolver(time.UTC)
//	day, err := r.Resolve("next friday")
//	if err != nil {
//	    var perr *dates.ParseError
//	    errors.As(err, &perr)
//	}
//	window := r.DayRange(day)
package dates
