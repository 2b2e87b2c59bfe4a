// Package mcpserver exposes a Dispatcher as Model Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/dispatcher"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
)

// Tool names.
const (
	ToolRouteTask       = "route_task"
	ToolExecuteWorkflow = "execute_workflow"
	ToolCountTokens     = "count_tokens"
)

// Options configures the MCP server.
type Options struct {
	// Name and Version identify the server during the MCP handshake.
	Name    string
	Version string

	Logger logging.Logger
}

// New returns an MCP server offering route_task, execute_workflow and
// count_tokens backed by d.
func New(d *dispatcher.Dispatcher, optFns ...func(o *Options)) *server.MCPServer {
	opts := Options{
		Name:    "agentrouter",
		Version: "dev",
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	h := &handlers{dispatcher: d, logger: opts.Logger}

	s := server.NewMCPServer(opts.Name, opts.Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(ToolRouteTask,
		mcp.WithDescription("Route a task to an agent and return its result"),
		mcp.WithString("task", mcp.Required(), mcp.Description("Name of the task to perform")),
		mcp.WithObject("context", mcp.Description("Optional free-form context passed to the agent")),
		mcp.WithString("agent", mcp.Description("Registered agent to use; defaults to the default agent")),
	), h.routeTask)

	s.AddTool(mcp.NewTool(ToolExecuteWorkflow,
		mcp.WithDescription("Run one workflow step for a task starting at the given phase"),
		mcp.WithString("phase", mcp.Required(), mcp.Description("Phase to leave, e.g. init")),
		mcp.WithString("task", mcp.Required(), mcp.Description("Name of the task to perform")),
		mcp.WithObject("context", mcp.Description("Optional free-form context passed to the agent")),
		mcp.WithString("agent", mcp.Description("Registered agent to use; defaults to the default agent")),
	), h.executeWorkflow)

	s.AddTool(mcp.NewTool(ToolCountTokens,
		mcp.WithDescription("Approximate the number of tokens in a text"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to count")),
	), h.countTokens)

	return s
}

// ServeStdio serves s over stdin and stdout until the input is closed.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type handlers struct {
	dispatcher *dispatcher.Dispatcher
	logger     logging.Logger
}

func (h *handlers) routeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()

	inv, err := h.dispatcher.Route(ctx, core.NewTask(name, args[core.ContextKey]), req.GetString("agent", ""))
	if err != nil {
		h.logger.Error("MCP route failed", "task", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"status":        "success",
		"result":        inv.Result,
		"phase":         inv.NextPhase,
		"invocation_id": inv.ID,
	})
}

func (h *handlers) executeWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, err := req.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	parsed, err := h.dispatcher.Engine().ParsePhase(phase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()

	inv, err := h.dispatcher.Execute(ctx, parsed, core.NewTask(name, args[core.ContextKey]), req.GetString("agent", ""))
	if err != nil {
		h.logger.Error("MCP workflow step failed", "phase", phase, "task", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{
		"status":        "success",
		"phase":         inv.Phase,
		"next_phase":    inv.NextPhase,
		"invoked":       inv.Invoked,
		"invocation_id": inv.ID,
	}
	if inv.Result != nil {
		out["result"] = inv.Result
	}

	return jsonResult(out)
}

func (h *handlers) countTokens(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{"count": util.CountTokens(text)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
