package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/tools/common"
)

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if res := required(args, "day"); res != nil {
		return res, nil
	}

	listing, err := sc.Assistant().ListEvents(ctx, common.StringArg(args, "day"))
	if err != nil {
		return respond(ctx, sc, assistant.OpList, nil, err)
	}
	return respond(ctx, sc, assistant.OpList, listing, nil)
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if res := required(args, "title", "date", "start_time", "end_time"); res != nil {
		return res, nil
	}

	created, err := sc.Assistant().CreateEvent(ctx, assistant.EventDraft{
		Title:       common.StringArg(args, "title"),
		Date:        common.StringArg(args, "date"),
		StartTime:   common.StringArg(args, "start_time"),
		EndTime:     common.StringArg(args, "end_time"),
		Description: common.StringArg(args, "description"),
		Recurrence:  common.StringSliceArg(args, "recurrence"),
	})
	if err != nil {
		return respond(ctx, sc, assistant.OpCreate, nil, err)
	}
	return respond(ctx, sc, assistant.OpCreate, created, nil)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if res := required(args, "title", "date", "new_start_time", "new_end_time"); res != nil {
		return res, nil
	}

	mutation, err := sc.Assistant().UpdateEvent(ctx, assistant.UpdateRequest{
		Title:    common.StringArg(args, "title"),
		Date:     common.StringArg(args, "date"),
		NewStart: common.StringArg(args, "new_start_time"),
		NewEnd:   common.StringArg(args, "new_end_time"),
	})
	return respondMutation(ctx, sc, assistant.OpUpdate, mutation, err)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if res := required(args, "title", "date"); res != nil {
		return res, nil
	}

	mutation, err := sc.Assistant().DeleteEvent(ctx, assistant.DeleteRequest{
		Title: common.StringArg(args, "title"),
		Date:  common.StringArg(args, "date"),
	})
	return respondMutation(ctx, sc, assistant.OpDelete, mutation, err)
}

func handleNextEvent(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	upcoming, err := sc.Assistant().NextEvent(ctx)
	if err != nil {
		return respond(ctx, sc, assistant.OpNext, nil, err)
	}
	return respond(ctx, sc, assistant.OpNext, upcoming, nil)
}

func handleWeeklyView(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	offset := common.IntArg(request.GetArguments(), "week_offset", 0)

	week, err := sc.Assistant().WeeklyView(ctx, offset)
	if err != nil {
		return respond(ctx, sc, assistant.OpWeek, nil, err)
	}
	return respond(ctx, sc, assistant.OpWeek, week, nil)
}

// respondMutation keeps a partial Mutation so the rendered failure can say
// how many events were changed before it.
func respondMutation(ctx context.Context, sc *server.ServerContext, op string, m *assistant.Mutation, err error) (*mcp.CallToolResult, error) {
	if m == nil {
		return respond(ctx, sc, op, nil, err)
	}
	return respond(ctx, sc, op, m, err)
}
