package testutil

import (
	"time"

	"github.com/hupe1980/agentrouter/core"
)

// InvocationBuilder provides a fluent helper for constructing invocation
// records in tests.
// Example:
//
//	inv := NewInvocationBuilder("inv-1").Agent("claude").Task("lint").Succeeded("ok").Build()
//
// Chain only the parts you need; defaults are agent "agent", phase "init".
type InvocationBuilder struct {
	inv core.Invocation
}

// NewInvocationBuilder creates a builder for an invocation with id.
func NewInvocationBuilder(id string) *InvocationBuilder {
	return &InvocationBuilder{inv: core.Invocation{
		ID:        id,
		Agent:     "agent",
		Task:      core.NewTask(core.UnknownTaskName, nil),
		Phase:     "init",
		StartedAt: time.Unix(0, 0).UTC(),
	}}
}

// Agent sets the agent name (chainable).
func (b *InvocationBuilder) Agent(name string) *InvocationBuilder {
	b.inv.Agent = name
	return b
}

// Task sets a task with the given dispatch key (chainable).
func (b *InvocationBuilder) Task(name string) *InvocationBuilder {
	b.inv.Task = core.NewTask(name, nil)
	return b
}

// Phase sets the phase left by the invocation (chainable).
func (b *InvocationBuilder) Phase(p string) *InvocationBuilder {
	b.inv.Phase = p
	return b
}

// Next sets the phase entered by the invocation (chainable).
func (b *InvocationBuilder) Next(p string) *InvocationBuilder {
	b.inv.NextPhase = p
	return b
}

// Succeeded marks the agent as invoked with a successful response (chainable).
func (b *InvocationBuilder) Succeeded(response any) *InvocationBuilder {
	b.inv.Invoked = true
	b.inv.Result = core.NewResult(b.inv.Agent, response)
	b.inv.Error = ""
	return b
}

// Failed records an error message (chainable).
func (b *InvocationBuilder) Failed(msg string) *InvocationBuilder {
	b.inv.Result = nil
	b.inv.Error = msg
	return b
}

// StartedAt sets the start time (chainable).
func (b *InvocationBuilder) StartedAt(t time.Time) *InvocationBuilder {
	b.inv.StartedAt = t
	return b
}

// Duration sets the duration (chainable).
func (b *InvocationBuilder) Duration(d time.Duration) *InvocationBuilder {
	b.inv.Duration = d
	return b
}

// Build returns the constructed invocation.
func (b *InvocationBuilder) Build() core.Invocation { return b.inv }
