package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolSpec describes the tool being wrapped.
type ToolSpec struct {
	Name string

	// Operation is the assistant operation the tool drives.
	Operation string

	ReadOnly bool
}

// InstrumentedToolHandler wraps handler with a tool span, invocation metrics
// and an audit entry. Results flagged IsError count as failures.
//
//	s.AddTool(tool, common.InstrumentedToolHandler(spec, sc, handler))
func InstrumentedToolHandler(spec ToolSpec, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, spec.Name, spec.ReadOnly)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(spec.Name).
			WithOperation(spec.Operation, spec.ReadOnly).
			WithArguments(request.GetArguments()).
			WithSpanContext(ctx)
		start := time.Now()

		result, err := handler(ctx, request)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errors.New(ResultText(result))
		}
		invocation.Complete(failure)

		status := instrumentation.StatusSuccess
		if failure != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, failure)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, spec.Name, status, time.Since(start))
		sc.AuditLogger().LogToolInvocation(ctx, invocation)

		return result, err
	}
}
