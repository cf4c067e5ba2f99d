package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.?|p\.m\.?)?$`)

// normalizeClock rewrites times such as "3pm", "9" or "3:30 p.m." into
// 24-hour HH:MM. Text it does not recognize is returned trimmed so the
// assistant can report it.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	m := clockPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return s
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}

	switch strings.ReplaceAll(m[3], ".", "") {
	case "am":
		if hour < 1 || hour > 12 {
			return s
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return s
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if m[2] == "" && hour > 23 {
			return s
		}
	}
	if hour > 23 || minute > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
