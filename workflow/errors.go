package workflow

import (
	"context"
	"errors"
	"fmt"
)

// PhaseError annotates an executor failure with the phase it occurred in.
// The phase does not advance when it is returned.
type PhaseError struct {
	Phase Phase
	Agent string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("workflow phase %q: agent %q failed: %v", e.Phase, e.Agent, e.Err)
}

// Unwrap returns the underlying executor error.
func (e *PhaseError) Unwrap() error { return e.Err }

// UnknownStateError reports a phase name outside the engine's table.
type UnknownStateError struct {
	Phase string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown workflow state: %s", e.Phase)
}

// TerminalStateError reports an attempt to advance from a terminal phase.
type TerminalStateError struct {
	Phase Phase
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("workflow already in terminal state: %s", e.Phase)
}

// EmptyWorkflowError is returned by engines whose table defines no phases.
type EmptyWorkflowError struct{}

func (e *EmptyWorkflowError) Error() string { return "workflow has no phases defined" }

// InvalidTableError reports a malformed transition table.
type InvalidTableError struct {
	Phase  Phase
	Reason string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid workflow table at %q: %s", e.Phase, e.Reason)
}

// IsRetryable reports whether a failed call may be retried from the same
// phase. Executor failures (including timeouts) are retryable; unknown,
// terminal and empty workflow failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var (
		unknown  *UnknownStateError
		terminal *TerminalStateError
		empty    *EmptyWorkflowError
		phase    *PhaseError
	)
	switch {
	case errors.As(err, &unknown), errors.As(err, &terminal), errors.As(err, &empty):
		return false
	case errors.As(err, &phase):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}
