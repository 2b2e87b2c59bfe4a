package core

import "time"

// Invocation records a single dispatch: which agent handled which task in
// which phase, and how it ended. Records are produced by the dispatcher and
// kept by history stores; they carry no workflow state of their own.
type Invocation struct {
	ID        string        `json:"id"`
	Agent     string        `json:"agent"`
	Task      Task          `json:"task"`
	Phase     string        `json:"phase"`
	NextPhase string        `json:"next_phase,omitempty"`
	Invoked   bool          `json:"invoked"`
	Result    Result        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Succeeded reports whether the invocation completed without error.
func (i Invocation) Succeeded() bool { return i.Error == "" }
