package server

import "github.com/hupe1980/agentrouter/core"

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is returned for malformed requests and unexpected failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// TokenCountRequest is the body of POST /v1/messages/count_tokens.
type TokenCountRequest struct {
	Text string `json:"text"`
}

// TokenCountResponse reports the token count.
type TokenCountResponse struct {
	Count int `json:"count"`
}

// RouteRequest is the body of POST /v1/mcp/route. Task is required; Agent
// selects a registered agent and defaults to the dispatcher's default.
type RouteRequest struct {
	Task    *string `json:"task"`
	Context any     `json:"context,omitempty"`
	Agent   string  `json:"agent,omitempty"`
}

// RouteResponse reports the outcome of routing one task. On failure Result
// holds {"error": message}.
type RouteResponse struct {
	Status       string         `json:"status"`
	Result       map[string]any `json:"result"`
	Phase        string         `json:"phase,omitempty"`
	InvocationID string         `json:"invocation_id,omitempty"`
}

// BatchRouteRequest is the body of POST /v1/mcp/route/batch.
type BatchRouteRequest struct {
	Tasks []RouteRequest `json:"tasks"`
	Agent string         `json:"agent,omitempty"`
}

// BatchRouteResponse holds one RouteResponse per task, in request order.
type BatchRouteResponse struct {
	Results []RouteResponse `json:"results"`
}

// ExecuteRequest is the body of POST /v1/workflow/execute.
type ExecuteRequest struct {
	Phase   string  `json:"phase"`
	Task    *string `json:"task"`
	Context any     `json:"context,omitempty"`
	Agent   string  `json:"agent,omitempty"`
}

// ExecuteResponse reports one workflow step.
type ExecuteResponse struct {
	Status       string         `json:"status"`
	Phase        string         `json:"phase"`
	NextPhase    string         `json:"next_phase,omitempty"`
	Invoked      bool           `json:"invoked"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	InvocationID string         `json:"invocation_id,omitempty"`
}

// AgentsResponse lists registered agents.
type AgentsResponse struct {
	Agents []AgentResponse `json:"agents"`
}

// AgentResponse describes one registered agent.
type AgentResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
}

// InvocationsResponse lists recent invocation records, most recent first.
type InvocationsResponse struct {
	Invocations []core.Invocation `json:"invocations"`
}
