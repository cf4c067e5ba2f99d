package calendar

import "strings"

// FindByTitle returns every event whose title equals title, ignoring case.
// A missing title compares as the empty string. The result may be empty.
func FindByTitle(events []Event, title string) []Event {
	want := strings.ToLower(title)

	var matches []Event
	for _, ev := range events {
		if strings.ToLower(ev.Summary) == want {
			matches = append(matches, ev)
		}
	}
	return matches
}
