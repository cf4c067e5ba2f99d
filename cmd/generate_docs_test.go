package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/tools/calendar_tools"
)

func TestRunGenerateDocs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runGenerateDocs(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "# MCP Tools Reference")
	assert.Contains(t, out, "- [Calendar Tools](#calendar-tools)")
	for _, name := range []string{
		calendar_tools.ToolListEvents,
		calendar_tools.ToolCreateEvent,
		calendar_tools.ToolUpdateEvent,
		calendar_tools.ToolDeleteEvent,
		calendar_tools.ToolNextEvent,
		calendar_tools.ToolWeeklyView,
	} {
		assert.Contains(t, out, "### "+name+"\n")
	}
	assert.Contains(t, out, "- `day` (string, required): ")
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("calendar_example",
		mcp.WithDescription("Example tool"),
		mcp.WithString("day", mcp.Required(), mcp.Description("Day to show")),
		mcp.WithNumber("limit"),
	)

	assert.Equal(t,
		"### calendar_example\n\n"+
			"Example tool\n\n"+
			"**Arguments:**\n"+
			"- `day` (string, required): Day to show\n"+
			"- `limit` (number, optional): number parameter\n\n",
		generateToolMarkdown(tool))
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Calendar Tools", getCategoryFromToolName("calendar_list_events"))
	assert.Equal(t, "Other", getCategoryFromToolName("weather"))
}
