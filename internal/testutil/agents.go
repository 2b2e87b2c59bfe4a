package testutil

import (
	"context"

	"github.com/hupe1980/agentrouter/core"
)

// FuncAgent adapts a function to core.Agent.
type FuncAgent struct {
	AgentName string
	Fn        func(ctx context.Context, task core.Task) (core.Result, error)
}

// NewFuncAgent creates a FuncAgent named name.
func NewFuncAgent(name string, fn func(ctx context.Context, task core.Task) (core.Result, error)) *FuncAgent {
	return &FuncAgent{AgentName: name, Fn: fn}
}

// Name implements core.Agent.
func (a *FuncAgent) Name() string { return a.AgentName }

// Handle implements core.Agent.
func (a *FuncAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	return a.Fn(ctx, task)
}

// FailingAgent returns an agent that always fails with err.
func FailingAgent(name string, err error) *FuncAgent {
	return NewFuncAgent(name, func(context.Context, core.Task) (core.Result, error) {
		return nil, err
	})
}

// EchoAgent returns an agent that succeeds with "<name>:<task name>".
func EchoAgent(name string) *FuncAgent {
	return NewFuncAgent(name, func(_ context.Context, task core.Task) (core.Result, error) {
		return core.NewResult(name, name+":"+task.Name()), nil
	})
}

// BlockingAgent returns an agent that ignores its context and blocks until
// release is closed.
func BlockingAgent(name string, release <-chan struct{}) *FuncAgent {
	return NewFuncAgent(name, func(context.Context, core.Task) (core.Result, error) {
		<-release
		return core.NewResult(name, "released"), nil
	})
}
