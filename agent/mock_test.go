package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hupe1980/agentrouter/core"
)

// MockAgent is a testify mock implementing core.Agent.
type MockAgent struct {
	mock.Mock
	BaseAgent
}

func NewMockAgent(name string) *MockAgent {
	return &MockAgent{BaseAgent: NewBaseAgent(name)}
}

func (m *MockAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	args := m.Called(ctx, task)

	var res core.Result
	if r := args.Get(0); r != nil {
		res = r.(core.Result)
	}

	return res, args.Error(1)
}
