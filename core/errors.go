package core

import (
	"errors"
	"fmt"
)

// Error codes used by the bundled executors.
const (
	CodeModelError    = "MODEL_ERROR"
	CodeSandboxError  = "SANDBOX_ERROR"
	CodeToolError     = "TOOL_ERROR"
	CodeInvalidResult = "INVALID_RESULT"
)

// ExecutorError represents a failure raised by an agent while handling a task.
// It is opaque to the workflow engine, which passes it through unchanged.
type ExecutorError struct {
	Agent   string `json:"agent"`          // Identity of the failing executor
	Code    string `json:"code,omitempty"` // Error code for categorization
	Message string `json:"message"`        // Human readable message
	Err     error  `json:"-"`              // Underlying cause, if any
}

func (e *ExecutorError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("executor error [%s] in %s: %s", e.Code, e.Agent, msg)
	}
	return fmt.Sprintf("executor error in %s: %s", e.Agent, msg)
}

// Unwrap exposes the underlying cause.
func (e *ExecutorError) Unwrap() error { return e.Err }

// NewExecutorError creates a new ExecutorError wrapping err.
func NewExecutorError(agent, code string, err error) *ExecutorError {
	e := &ExecutorError{Agent: agent, Code: code, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// AsExecutorError extracts an *ExecutorError from err's chain.
func AsExecutorError(err error) (*ExecutorError, bool) {
	var ee *ExecutorError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
