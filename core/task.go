package core

import "maps"

const (
	// TaskKey is the dispatch key naming the operation to perform.
	TaskKey = "task"
	// ContextKey holds optional free-form context supplied by the caller.
	ContextKey = "context"
	// UnknownTaskName is the sentinel used when a task carries no dispatch key.
	UnknownTaskName = "unknown"
)

// Task is an open, semi-structured task description. Only the dispatch key
// (TaskKey) has meaning to the framework; every other field is passed through
// to the executor untouched.
//
// A Task is treated as immutable once constructed. Callers that need to hand
// the same task to several executors should pass Clone()s.
type Task map[string]any

// NewTask builds a task with the given dispatch key and optional context.
// A nil context is omitted.
func NewTask(name string, context any) Task {
	t := Task{TaskKey: name}
	if context != nil {
		t[ContextKey] = context
	}
	return t
}

// Name returns the dispatch key or UnknownTaskName if absent or not a string.
func (t Task) Name() string {
	if v, ok := t[TaskKey].(string); ok {
		return v
	}
	return UnknownTaskName
}

// HasName reports whether the task carries a string dispatch key.
func (t Task) HasName() bool {
	_, ok := t[TaskKey].(string)
	return ok
}

// Context returns the optional caller supplied context (nil if absent).
func (t Task) Context() any { return t[ContextKey] }

// Clone returns a shallow copy of the task. Nested values are shared.
func (t Task) Clone() Task {
	if t == nil {
		return Task{}
	}
	return maps.Clone(t)
}
