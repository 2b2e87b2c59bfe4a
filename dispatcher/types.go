package dispatcher

import "github.com/hupe1980/agentrouter/core"

// AgentInfo describes a registered agent.
type AgentInfo struct {
	core.AgentInfo
	Default bool `json:"default"`
}

// BatchResult is the outcome of one task routed by RouteBatch.
type BatchResult struct {
	Index      int
	Invocation core.Invocation
	Err        error
}
