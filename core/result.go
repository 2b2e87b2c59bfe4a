package core

import "maps"

const (
	// StatusKey holds the status marker of a Result.
	StatusKey = "status"
	// ResponseKey holds the response payload of a Result.
	ResponseKey = "response"
	// AgentKey holds the identity of the executor that produced a Result.
	AgentKey = "agent"

	// StatusSuccess is the fixed success marker every successful Result carries.
	StatusSuccess = "success"
	// StatusError marks error envelopes produced by transports (never by agents).
	StatusError = "error"
)

// Result is an open, semi-structured executor output. Successful results
// always carry StatusKey == StatusSuccess and a ResponseKey payload.
type Result map[string]any

// NewResult builds a successful result annotated with the executor identity.
func NewResult(agent string, response any) Result {
	return Result{
		StatusKey:   StatusSuccess,
		ResponseKey: response,
		AgentKey:    agent,
	}
}

// Status returns the status marker (empty if absent).
func (r Result) Status() string {
	s, _ := r[StatusKey].(string)
	return s
}

// Response returns the response payload.
func (r Result) Response() any { return r[ResponseKey] }

// Agent returns the executor identity recorded on the result.
func (r Result) Agent() string {
	s, _ := r[AgentKey].(string)
	return s
}

// IsSuccess reports whether the result carries the success marker.
func (r Result) IsSuccess() bool { return r.Status() == StatusSuccess }

// Clone returns a shallow copy of the result.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// With returns a copy of the result with key set to value.
func (r Result) With(key string, value any) Result {
	cp := maps.Clone(r)
	if cp == nil {
		cp = Result{}
	}
	cp[key] = value
	return cp
}
