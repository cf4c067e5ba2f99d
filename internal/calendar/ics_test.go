package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteICS(t *testing.T) {
	events := []Event{
		{
			ID:          "abc",
			Summary:     "Quarterly review",
			Description: "Bring numbers",
			Start:       EventTime{DateTime: "2025-06-01T15:00:00-05:00", TimeZone: "America/Chicago"},
			End:         EventTime{DateTime: "2025-06-01T16:00:00-05:00", TimeZone: "America/Chicago"},
			Recurrence:  []string{"RRULE:FREQ=WEEKLY;COUNT=4"},
		},
		{
			ID:      "holiday",
			Summary: "Holiday",
			Start:   EventTime{Date: "2025-06-02"},
			End:     EventTime{Date: "2025-06-03"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+icsProductID)
	assert.Contains(t, out, "UID:abc@calmate")
	assert.Contains(t, out, "SUMMARY:Quarterly review")
	assert.Contains(t, out, "DTSTART:20250601T200000Z")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;COUNT=4")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250602")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestWriteICS_RejectsBadTimes(t *testing.T) {
	var buf bytes.Buffer
	err := WriteICS(&buf, []Event{{ID: "x", Start: EventTime{DateTime: "yesterday"}}})
	assert.Error(t, err)
}

func TestICSRoundTrip(t *testing.T) {
	events := []Event{
		{
			ID:      "abc",
			Summary: "Review, final; v2",
			Start:   EventTime{DateTime: "2025-06-01T15:00:00Z"},
			End:     EventTime{DateTime: "2025-06-01T16:00:00Z"},
		},
		{
			ID:      "holiday",
			Summary: "Holiday",
			Start:   EventTime{Date: "2025-06-02"},
			End:     EventTime{Date: "2025-06-03"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))

	got, err := ReadICS(&buf, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "abc", got[0].ID)
	assert.Equal(t, "Review, final; v2", got[0].Summary)
	start, err := got[0].Start.Instant(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)))

	assert.True(t, got[1].Start.IsAllDay())
	assert.Equal(t, "2025-06-02", got[1].Start.Date)
}

func TestReadICS_Invalid(t *testing.T) {
	_, err := ReadICS(strings.NewReader("BEGIN:VCALENDAR\r\nthis is not ics"), time.UTC)
	assert.Error(t, err)
}
