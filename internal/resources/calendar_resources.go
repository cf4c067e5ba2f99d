package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
	"github.com/teemow/calmate/internal/server"
)

// Resource URIs.
const (
	URISettings = "calendar://settings"
	URIToday    = "calendar://today"
	URIWeek     = "calendar://week"
)

const mimeJSON = "application/json"

// RegisterCalendarResources registers the calendar resources on s.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	s.AddResource(mcp.NewResource(URISettings, "Calendar Settings",
		mcp.WithResourceDescription("The calendar, time zones and mode the assistant operates with"),
		mcp.WithMIMEType(mimeJSON),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, sc)
	})

	s.AddResource(mcp.NewResource(URIToday, "Today's Events",
		mcp.WithResourceDescription("Events of the current day"),
		mcp.WithMIMEType(mimeJSON),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		resolver := sc.Assistant().Resolver()
		today := resolver.Today()
		return handleEvents(ctx, request, sc, today.String(), resolver.DayRange(today))
	})

	s.AddResource(mcp.NewResource(URIWeek, "This Week's Events",
		mcp.WithResourceDescription("Events from Monday to Sunday of the current week"),
		mcp.WithMIMEType(mimeJSON),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		resolver := sc.Assistant().Resolver()
		monday := dates.MondayOf(resolver.Today())
		return handleEvents(ctx, request, sc, "week of "+monday.String(), resolver.WeekRange(0))
	})

	return nil
}

func handleSettings(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	a := sc.Assistant()
	return jsonContents(request.Params.URI, map[string]any{
		"calendar_id":    a.CalendarID(),
		"timezone":       a.Resolver().Location().String(),
		"event_timezone": a.EventTimeZone(),
		"backend":        sc.Backend(),
		"read_only":      sc.ReadOnly(),
		"today":          a.Resolver().Today().String(),
	})
}

type eventView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"all_day,omitempty"`
	Location string `json:"location,omitempty"`
}

func handleEvents(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext, period string, rng dates.Range) ([]mcp.ResourceContents, error) {
	events, err := sc.Assistant().Events(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		views = append(views, toView(ev))
	}

	return jsonContents(request.Params.URI, map[string]any{
		"calendar_id": sc.Assistant().CalendarID(),
		"period":      period,
		"events":      views,
	})
}

func toView(ev calendar.Event) eventView {
	return eventView{
		ID:       ev.ID,
		Title:    ev.Summary,
		Start:    ev.Start.Display(),
		End:      ev.End.Display(),
		AllDay:   ev.Start.IsAllDay(),
		Location: ev.Location,
	}
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		},
	}, nil
}
