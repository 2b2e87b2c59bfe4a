package core

import "context"

// Agent defines the capability contract every executor in agentrouter must
// implement.
//
// An agent accepts a task description and returns a structured Result or an
// error. Implementations are selected by configuration, never by task content,
// and are shared by all concurrent dispatches for the lifetime of the process.
//
// Implementations must:
//   - Be safe for concurrent invocation (serialize any internal state privately)
//   - Respect context cancellation so a stuck backend cannot hang the caller
//   - Treat the task as read-only
//   - Return a fully populated Result with Status() == StatusSuccess on success,
//     and a nil Result on failure
//   - Degrade a missing dispatch key to UnknownTaskName instead of failing
type Agent interface {
	// Name returns the executor identity used for registry lookup and result annotation.
	Name() string

	// Handle performs the task and returns its result.
	Handle(ctx context.Context, task Task) (Result, error)
}

// Describer is implemented by agents that expose a human readable description.
type Describer interface {
	Description() string
}

// AgentInfo carries identifying details about an agent used in records & responses.
// Name is the external identifier; Kind categorizes the implementation (e.g. "builtin", "model").
type AgentInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
}

// DescribeAgent returns the AgentInfo for a, using its Description when available.
func DescribeAgent(a Agent, kind string) AgentInfo {
	info := AgentInfo{Name: a.Name(), Kind: kind}
	if d, ok := a.(Describer); ok {
		info.Description = d.Description()
	}
	return info
}
