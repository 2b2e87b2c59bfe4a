package dispatcher

import "errors"

var (
	// ErrAgentNotFound is returned (wrapped with the name) when a dispatch names
	// an agent that is not registered.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrNoAgents is returned when no agent is registered to serve a dispatch.
	ErrNoAgents = errors.New("no agents registered")
)
