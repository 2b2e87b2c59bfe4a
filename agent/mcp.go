package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolCaller is the subset of an MCP client used by MCPAgent.
// *client.Client implements it.
type ToolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
}

// MCPAgentOptions configures an MCPAgent.
type MCPAgentOptions struct {
	// ValidateArguments checks the task against the tool's input schema before
	// calling it. The schema is fetched on first use and cached.
	ValidateArguments bool

	Description string
	Logger      logging.Logger
}

// MCPAgent executes tasks by calling a single tool on an MCP server with the
// task fields as arguments.
type MCPAgent struct {
	BaseAgent
	caller   ToolCaller
	toolName string
	validate bool
	logger   logging.Logger

	schemaMu sync.Mutex
	schema   map[string]any
}

// NewMCPAgent creates an MCPAgent calling toolName through caller.
func NewMCPAgent(name string, caller ToolCaller, toolName string, optFns ...func(o *MCPAgentOptions)) *MCPAgent {
	opts := MCPAgentOptions{
		Description: fmt.Sprintf("MCP executor calling tool %s", toolName),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &MCPAgent{
		BaseAgent: NewBaseAgent(name),
		caller:    caller,
		toolName:  toolName,
		validate:  opts.ValidateArguments,
		logger:    opts.Logger,
	}
	a.SetDescription(opts.Description)

	return a
}

// ToolName returns the MCP tool called by this agent.
func (a *MCPAgent) ToolName() string { return a.toolName }

// Handle implements core.Agent. Text content of the tool result becomes the
// response; results flagged IsError fail with code TOOL_ERROR.
func (a *MCPAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	args := task.Clone()
	args[core.TaskKey] = task.Name()

	if a.validate {
		schema, err := a.inputSchema(ctx)
		if err != nil {
			return nil, core.NewExecutorError(a.Name(), core.CodeToolError, err)
		}
		if err := util.ValidateParameters(args, schema); err != nil {
			return nil, core.NewExecutorError(a.Name(), core.CodeToolError, err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = a.toolName
	req.Params.Arguments = map[string]any(args)

	result, err := a.caller.CallTool(ctx, req)
	if err != nil {
		a.logger.Error("MCP tool call failed", "agent", a.Name(), "tool", a.toolName, "error", err)
		return nil, core.NewExecutorError(a.Name(), core.CodeToolError, err)
	}

	text := resultText(result)

	if result.IsError {
		return nil, &core.ExecutorError{
			Agent:   a.Name(),
			Code:    core.CodeToolError,
			Message: fmt.Sprintf("tool %s returned an error: %s", a.toolName, text),
		}
	}

	res := core.NewResult(a.Name(), text)
	res["tool"] = a.toolName

	return res, nil
}

func (a *MCPAgent) inputSchema(ctx context.Context) (map[string]any, error) {
	a.schemaMu.Lock()
	defer a.schemaMu.Unlock()

	if a.schema != nil {
		return a.schema, nil
	}

	tools, err := a.caller.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	for _, t := range tools.Tools {
		if t.Name != a.toolName {
			continue
		}
		a.schema = map[string]any{
			"type":       t.InputSchema.Type,
			"properties": t.InputSchema.Properties,
			"required":   t.InputSchema.Required,
		}
		return a.schema, nil
	}

	return nil, fmt.Errorf("tool %q not offered by server", a.toolName)
}

// resultText joins all text contents of result with newlines.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// MCPServerConfig describes how to reach an MCP server.
type MCPServerConfig struct {
	Transport string   // stdio or sse
	Command   string   // stdio only
	Args      []string // stdio only
	Env       []string // stdio only, KEY=VALUE
	URL       string   // sse only
}

// ConnectMCP creates and initializes an MCP client for cfg.
func ConnectMCP(ctx context.Context, cfg MCPServerConfig) (*client.Client, error) {
	var (
		c   *client.Client
		err error
	)

	switch cfg.Transport {
	case "stdio", "":
		if cfg.Command == "" {
			return nil, errors.New("stdio transport requires a command")
		}
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("start stdio client: %w", err)
		}
	case "sse":
		if cfg.URL == "" {
			return nil, errors.New("sse transport requires a url")
		}
		c, err = client.NewSSEMCPClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("create sse client: %w", err)
		}
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("start sse client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported mcp transport %q", cfg.Transport)
	}

	if err := InitializeMCP(ctx, c); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// InitializeMCP performs the MCP handshake on an already started client.
func InitializeMCP(ctx context.Context, c *client.Client) error {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "agentrouter",
		Version: "1.0.0",
	}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION

	if _, err := c.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize mcp client: %w", err)
	}

	return nil
}
