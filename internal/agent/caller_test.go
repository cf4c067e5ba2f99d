package agent

import (
	"context"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/tools/calendar_tools"
)

// Wednesday
var testNow = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func newServerCaller(t *testing.T, readOnly bool) *ServerToolCaller {
	t.Helper()
	resolver := dates.NewResolver(time.UTC, dates.WithClock(func() time.Time { return testNow }))
	a, err := assistant.New(calendar.NewMemoryService(), resolver, assistant.Options{Logger: logging.Discard()})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), server.Options{Assistant: a, ReadOnly: readOnly})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	srv := mcpserver.NewMCPServer("calmate-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, calendar_tools.RegisterCalendarTools(srv, sc))
	return NewServerToolCaller(srv)
}

func TestServerToolCaller_Tools(t *testing.T) {
	assert.Equal(t, []string{
		calendar_tools.ToolListEvents,
		calendar_tools.ToolNextEvent,
		calendar_tools.ToolWeeklyView,
	}, newServerCaller(t, true).Tools())
}

func TestServerToolCaller_UnknownTool(t *testing.T) {
	caller := newServerCaller(t, true)

	_, err := caller.CallTool(context.Background(), calendar_tools.ToolDeleteEvent, map[string]any{"title": "x", "date": "today"})
	assert.ErrorIs(t, err, ErrUnknownTool)
}

// A whole conversation through the real tools.
func TestIntentAgent_Conversation(t *testing.T) {
	a := NewIntentAgent(newServerCaller(t, false), logging.Discard())
	ctx := context.Background()

	var history []Message
	say := func(input string) string {
		t.Helper()
		reply, err := a.Respond(ctx, input, history)
		require.NoError(t, err)
		history = Append(history, input, reply)
		return reply.Text
	}

	assert.Equal(t, "No events found on tomorrow.", say("what's on tomorrow?"))
	assert.Equal(t, "✅ Event 'Dentist' created for 2025-06-05 from 15:00 to 16:00",
		say("create Dentist tomorrow from 3pm to 4pm"))
	assert.Equal(t, "Events on tomorrow:\n- Dentist at 2025-06-05T15:00:00Z", say("what's on tomorrow"))
	assert.Equal(t, "No events found on today.", say("and today"))
	assert.Equal(t, "Next event: Dentist at 2025-06-05T15:00:00Z", say("what's next"))
	assert.Equal(t, "✅ Updated 1 event(s) titled 'dentist' on 2025-06-05.", say("move dentist on tomorrow to 9:00-10:00"))
	assert.Equal(t, "Events for the week of 2025-06-02:\n- Dentist at 2025-06-05T09:00:00Z", say("this week"))
	assert.Equal(t, "✅ Deleted 1 event(s) titled 'Dentist' on 2025-06-05.", say("delete Dentist tomorrow"))
	assert.Equal(t, "No event titled 'Dentist' found on 2025-06-05.", say("cancel Dentist on tomorrow"))
	assert.Equal(t, "❌ Unrecognized date format. Use 'today', 'tomorrow', or YYYY-MM-DD.",
		say("create Party on friday from 20:00 to 23:00"))

	assert.Len(t, history, 20)
}
