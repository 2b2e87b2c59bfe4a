package agent

import "fmt"

// BaseAgent bundles identity helpers shared by the executors in this package.
// Embed it in concrete agents and supply a Handle method to satisfy core.Agent.
type BaseAgent struct {
	name        string // Executor identity used for registry lookup
	description string // Human readable purpose
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the executor identity.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description. Call it before the agent
// is shared between goroutines.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }
