package calendar_tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/tools/common"
)

// Tool names.
const (
	ToolListEvents  = "calendar_list_events"
	ToolCreateEvent = "calendar_create_event"
	ToolUpdateEvent = "calendar_update_event"
	ToolDeleteEvent = "calendar_delete_event"
	ToolNextEvent   = "calendar_next_event"
	ToolWeeklyView  = "calendar_weekly_view"
)

const dayDescription = "Day the event is on: 'today', 'tomorrow', YYYY-MM-DD, DD/MM/YYYY (day first) or a phrase like 'next friday'"

type tool struct {
	def     mcp.Tool
	spec    common.ToolSpec
	handler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)
}

// RegisterCalendarTools adds the calendar tools to s. Create, update and
// delete are skipped when sc is read-only.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return errors.New("mcp server and server context are required")
	}

	for _, t := range calendarTools() {
		if !t.spec.ReadOnly && sc.ReadOnly() {
			continue
		}
		handler := t.handler
		op := t.spec.Operation
		readOnly := t.spec.ReadOnly
		t.def.Annotations.ReadOnlyHint = &readOnly
		s.AddTool(t.def, common.InstrumentedToolHandler(t.spec, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				ctx, span := instrumentation.StartOperationSpan(ctx, op, sc.Assistant().CalendarID())
				defer span.End()
				return handler(ctx, request, sc)
			}))
	}
	return nil
}

func calendarTools() []tool {
	return []tool{
		{
			def: mcp.NewTool(ToolListEvents,
				mcp.WithDescription("List the events on one day"),
				mcp.WithString("day",
					mcp.Required(),
					mcp.Description("Day to list: 'today', 'tomorrow', YYYY-MM-DD, DD/MM/YYYY (day first) or a phrase like 'next friday'"),
				),
			),
			spec:    common.ToolSpec{Name: ToolListEvents, Operation: assistant.OpList, ReadOnly: true},
			handler: handleListEvents,
		},
		{
			def: mcp.NewTool(ToolNextEvent,
				mcp.WithDescription("Show the next upcoming event"),
			),
			spec:    common.ToolSpec{Name: ToolNextEvent, Operation: assistant.OpNext, ReadOnly: true},
			handler: handleNextEvent,
		},
		{
			def: mcp.NewTool(ToolWeeklyView,
				mcp.WithDescription("List the events of a Monday to Sunday week"),
				mcp.WithNumber("week_offset",
					mcp.Description("Weeks from the current one: 0 is this week, 1 next week, -1 last week (default 0)"),
				),
			),
			spec:    common.ToolSpec{Name: ToolWeeklyView, Operation: assistant.OpWeek, ReadOnly: true},
			handler: handleWeeklyView,
		},
		{
			def: mcp.NewTool(ToolCreateEvent,
				mcp.WithDescription("Create an event on a day between two times"),
				mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
				mcp.WithString("date",
					mcp.Required(),
					mcp.Description("'today', 'tomorrow' or YYYY-MM-DD"),
				),
				mcp.WithString("start_time", mcp.Required(), mcp.Description("Start time, HH:MM 24-hour")),
				mcp.WithString("end_time", mcp.Required(), mcp.Description("End time, HH:MM 24-hour")),
				mcp.WithString("description", mcp.Description("Optional event description")),
				mcp.WithString("recurrence",
					mcp.Description("Optional RRULE/EXDATE lines, one per line, e.g. 'RRULE:FREQ=WEEKLY;COUNT=4'"),
				),
			),
			spec:    common.ToolSpec{Name: ToolCreateEvent, Operation: assistant.OpCreate},
			handler: handleCreateEvent,
		},
		{
			def: mcp.NewTool(ToolUpdateEvent,
				mcp.WithDescription("Move every event with a title on a day to a new time slot on the same day"),
				mcp.WithString("title", mcp.Required(), mcp.Description("Exact event title, case-insensitive")),
				mcp.WithString("date", mcp.Required(), mcp.Description(dayDescription)),
				mcp.WithString("new_start_time", mcp.Required(), mcp.Description("New start time, HH:MM 24-hour")),
				mcp.WithString("new_end_time", mcp.Required(), mcp.Description("New end time, HH:MM 24-hour")),
			),
			spec:    common.ToolSpec{Name: ToolUpdateEvent, Operation: assistant.OpUpdate},
			handler: handleUpdateEvent,
		},
		{
			def: mcp.NewTool(ToolDeleteEvent,
				mcp.WithDescription("Delete every event with a title on a day"),
				mcp.WithString("title", mcp.Required(), mcp.Description("Exact event title, case-insensitive")),
				mcp.WithString("date", mcp.Required(), mcp.Description(dayDescription)),
			),
			spec:    common.ToolSpec{Name: ToolDeleteEvent, Operation: assistant.OpDelete},
			handler: handleDeleteEvent,
		},
	}
}

// respond renders the outcome and records it. Not-found answers are plain
// text so that clients show them as an answer rather than a failure.
func respond(ctx context.Context, sc *server.ServerContext, op string, res assistant.Result, err error) (*mcp.CallToolResult, error) {
	outcome := instrumentation.StatusSuccess
	if err != nil {
		outcome = assistant.KindOf(err).String()
	}
	sc.Metrics().RecordOperation(ctx, op, outcome)

	text := assistant.Render(res, err)
	if err != nil && assistant.KindOf(err) != assistant.KindNotFound {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func required(args map[string]any, names ...string) *mcp.CallToolResult {
	for _, name := range names {
		if common.StringArg(args, name) == "" {
			return mcp.NewToolResultError(name + " is required")
		}
	}
	return nil
}
