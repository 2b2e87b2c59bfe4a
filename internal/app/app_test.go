package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/workflow"
)

func TestNew_Default(t *testing.T) {
	var buf bytes.Buffer

	a, err := New(context.Background(), config.Default(), func(o *Options) {
		o.LogOutput = &buf
		o.Version = "9.9.9"
	})
	require.NoError(t, err)
	defer a.Close()

	inv, err := a.Dispatcher.Route(context.Background(), core.NewTask("hello", nil), "")
	require.NoError(t, err)
	assert.Equal(t, "claude", inv.Agent)
	assert.Equal(t, "Claude task 'hello' completed", inv.Result.Response())

	assert.Contains(t, buf.String(), `"component":"dispatcher"`)
}

func TestNew_ConfiguredAgentsAndWorkflow(t *testing.T) {
	cfg, err := config.Parse([]byte(`
dispatcher:
  default_agent: gpt
  history_size: 5
agents:
  - name: claude
    kind: builtin
  - name: gpt
    kind: builtin
    label: GPT
    description: pretend model
  - name: sonnet
    kind: anthropic
    model: claude-sonnet-4-5
    api_key: test
  - name: mini
    kind: openai
    model: gpt-4o-mini
    api_key: test
  - name: box
    kind: sandbox
    url: http://127.0.0.1:1
workflow:
  transitions:
    - from: init
      to: review
      invoke_agent: true
    - from: review
      to: done
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg, func(o *Options) { o.LogOutput = &bytes.Buffer{} })
	require.NoError(t, err)
	defer a.Close()

	infos := a.Dispatcher.Agents()
	require.Len(t, infos, 5)

	def, err := a.Dispatcher.DefaultAgent()
	require.NoError(t, err)
	assert.Equal(t, "gpt", def.Name())

	for _, name := range []string{"sonnet", "mini"} {
		got, ok := a.Dispatcher.GetAgent(name)
		require.True(t, ok)
		assert.IsType(t, &agent.ModelAgent{}, got)
	}

	box, ok := a.Dispatcher.GetAgent("box")
	require.True(t, ok)
	assert.IsType(t, &agent.SandboxAgent{}, box)

	inv, err := a.Dispatcher.Route(context.Background(), core.NewTask("t", nil), "")
	require.NoError(t, err)
	assert.Equal(t, "review", inv.NextPhase)
	assert.Equal(t, "GPT task 't' completed", inv.Result.Response())

	next, err := a.Dispatcher.Engine().Execute(context.Background(), nil, workflow.Phase("review"), core.NewTask("t", nil))
	require.NoError(t, err)
	assert.Equal(t, workflow.Phase("done"), next)
}

func TestNew_CompositeAgents(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = append(cfg.Agents,
		config.AgentConfig{Name: "reviewer", Kind: config.KindBuiltin, Label: "Reviewer"},
		config.AgentConfig{Name: "pipeline", Kind: config.KindSequential, Children: []string{"claude", "reviewer"}},
		config.AgentConfig{Name: "fanout", Kind: config.KindParallel, Children: []string{"claude", "reviewer"}, Description: "ask both"},
		config.AgentConfig{Name: "poll", Kind: config.KindLoop, Children: []string{"claude"}, MaxIterations: 2},
	)

	a, err := New(context.Background(), cfg, func(o *Options) { o.LogOutput = &bytes.Buffer{} })
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()

	inv, err := a.Dispatcher.Route(ctx, core.NewTask("review", nil), "pipeline")
	require.NoError(t, err)
	assert.Equal(t, "Reviewer task 'review' completed", inv.Result.Response())

	inv, err = a.Dispatcher.Route(ctx, core.NewTask("review", nil), "fanout")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"claude":   "Claude task 'review' completed",
		"reviewer": "Reviewer task 'review' completed",
	}, inv.Result.Response())

	inv, err = a.Dispatcher.Route(ctx, core.NewTask("review", nil), "poll")
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Result[agent.IterationsKey])

	ag, ok := a.Dispatcher.GetAgent("fanout")
	require.True(t, ok)
	assert.Equal(t, "ask both", ag.(core.Describer).Description())
}

func TestBuildAgent_CompositeUnknownChild(t *testing.T) {
	ac := config.AgentConfig{Name: "pipeline", Kind: config.KindSequential, Children: []string{"ghost"}}

	_, _, err := BuildAgent(context.Background(), ac, func(string) (core.Agent, bool) { return nil, false }, logging.NoOpLogger{})
	assert.EqualError(t, err, `agent pipeline: unknown child "ghost"`)
}

func TestNew_InvalidLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_MCPConnectFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = append(cfg.Agents, config.AgentConfig{
		Name: "tools", Kind: config.KindMCP, Tool: "echo", Transport: "sse", URL: "http://127.0.0.1:1/sse",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, cfg, func(o *Options) { o.LogOutput = &bytes.Buffer{} })
	assert.ErrorContains(t, err, "tools")
}

func TestHTTPServer(t *testing.T) {
	a, err := New(context.Background(), config.Default(), func(o *Options) {
		o.LogOutput = &bytes.Buffer{}
		o.Version = "9.9.9"
	})
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.HTTPServer().App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMCPServer(t *testing.T) {
	a, err := New(context.Background(), config.Default(), func(o *Options) { o.LogOutput = &bytes.Buffer{} })
	require.NoError(t, err)
	defer a.Close()

	s := a.MCPServer()
	require.NotNil(t, s)
}

func TestNewLogger(t *testing.T) {
	t.Run("slog json", func(t *testing.T) {
		var buf bytes.Buffer
		l, flush, err := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)
		require.NoError(t, err)
		defer flush()

		l.Info("hello", "k", "v")
		assert.Contains(t, buf.String(), `"k":"v"`)
		assert.IsType(t, &logging.RouterLogger{}, l)
	})

	t.Run("zap", func(t *testing.T) {
		var buf bytes.Buffer
		l, flush, err := NewLogger(config.LogConfig{Level: "debug", Format: "json", Backend: "zap"}, &buf)
		require.NoError(t, err)

		l.Debug("zapped", "k", 1)
		require.NoError(t, flush())
		assert.Contains(t, buf.String(), `"msg":"zapped"`)
		assert.IsType(t, &logging.ZapAdapter{}, l)
	})

	t.Run("slog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "router.log")
		l, flush, err := NewLogger(config.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "file",
			File:   config.LogFileConfig{Path: path, MaxSize: 1},
		}, nil)
		require.NoError(t, err)

		l.Info("to file")
		require.NoError(t, flush())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})
}
