package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/metrics"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Tool call outcomes recorded by CallAuditor.
const (
	outcomeOK        = "ok"
	outcomeToolError = "tool_error"
	outcomeError     = "error"
)

// CallAuditor logs every MCP tool call with its caller and duration, and
// records the call in the MCP Prometheus metrics.
type CallAuditor struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallAuditor creates a CallAuditor.
func NewCallAuditor(logger *zap.Logger) *CallAuditor {
	return &CallAuditor{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks that capture tool call events.
func (a *CallAuditor) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *CallAuditor) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *CallAuditor) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	outcome := outcomeOK
	if result != nil && result.IsError {
		outcome = outcomeToolError
	}
	a.finish(ctx, id, req.Params.Name, outcome, nil)
}

func (a *CallAuditor) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	a.finish(ctx, id, req.Params.Name, outcomeError, err)
}

func (a *CallAuditor) finish(ctx context.Context, id any, tool, outcome string, err error) {
	start := time.Now()
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		start = v.(time.Time)
	}
	duration := time.Since(start)

	metrics.MCPToolCalls.WithLabelValues(tool, outcome).Inc()
	metrics.MCPToolDuration.WithLabelValues(tool).Observe(duration.Seconds())

	fields := []zap.Field{
		zap.String("tool", tool),
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
	}
	if actor, ok := models.GetActor(ctx); ok {
		fields = append(fields, zap.String("actor_id", actor.ID.String()), zap.String("role", actor.Role))
	}
	if err != nil {
		a.logger.Warn("MCP tool call failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}
