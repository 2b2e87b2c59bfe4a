package agent

import (
	"testing"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/model"
	"github.com/stretchr/testify/assert"
)

var (
	_ core.Agent     = (*Builtin)(nil)
	_ core.Agent     = (*ModelAgent)(nil)
	_ core.Agent     = (*SandboxAgent)(nil)
	_ core.Agent     = (*MCPAgent)(nil)
	_ core.Agent     = (*SequentialAgent)(nil)
	_ core.Agent     = (*ParallelAgent)(nil)
	_ core.Agent     = (*LoopAgent)(nil)
	_ core.Describer = (*Builtin)(nil)
)

func TestBaseAgent(t *testing.T) {
	b := NewBaseAgent("worker")
	assert.Equal(t, "worker", b.Name())
	assert.Equal(t, "Agent worker", b.Description())

	b.SetDescription("does work")
	assert.Equal(t, "does work", b.Description())
}

func TestDescribeAgent_Executors(t *testing.T) {
	m := NewModelAgent("writer", model.NewMockModel("mock-1", "mock"))

	info := core.DescribeAgent(m, "model")
	assert.Equal(t, "writer", info.Name)
	assert.Equal(t, "Model executor using mock-1 (mock)", info.Description)
}
