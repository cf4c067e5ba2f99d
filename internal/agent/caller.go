package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/tools/common"
)

// ServerToolCaller calls the tools registered on an mcp-go server directly,
// without a transport.
type ServerToolCaller struct {
	srv *mcpserver.MCPServer
}

var _ ToolCaller = (*ServerToolCaller)(nil)

func NewServerToolCaller(srv *mcpserver.MCPServer) *ServerToolCaller {
	return &ServerToolCaller{srv: srv}
}

// CallTool runs the tool's handler, middleware included.
func (c *ServerToolCaller) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := c.srv.ListTools()[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := tool.Handler(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	return common.ResultText(res), nil
}

// Tools lists the registered tool names in order.
func (c *ServerToolCaller) Tools() []string {
	tools := c.srv.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
