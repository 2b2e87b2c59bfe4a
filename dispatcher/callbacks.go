package dispatcher

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
)

// CallbackType identifies the lifecycle point a callback hooks into.
type CallbackType string

const (
	// CallbackBeforeInvocation runs before the workflow step. Returning an
	// error aborts the dispatch.
	CallbackBeforeInvocation CallbackType = "before_invocation"

	// CallbackAfterInvocation runs after a successful step.
	CallbackAfterInvocation CallbackType = "after_invocation"

	// CallbackOnError runs after a failed step. Its error is only logged.
	CallbackOnError CallbackType = "on_error"
)

// Metadata keys set by the dispatcher.
const (
	MetadataTask     = "task"     // dispatch key of the task (all callbacks)
	MetadataDuration = "duration" // time.Duration of the step (after / on_error)
	MetadataInvoked  = "invoked"  // whether the agent ran (after / on_error)
)

// CallbackContext carries the invocation being dispatched. For before
// callbacks only ID, Agent, Task, Phase and StartedAt are populated.
type CallbackContext struct {
	Invocation   *core.Invocation
	CallbackType CallbackType
	Err          error
	Metadata     map[string]any
}

// Callback hooks into dispatcher lifecycle events.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback adapts a plain function to Callback.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a Callback running fn at callbackType.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type implements Callback.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute implements Callback.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager holds callbacks by type. Safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager returns an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback appends callback to its type's list.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs the callbacks of callbackType in registration order
// and stops at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback logs every invocation passing its lifecycle point.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a LoggingCallback for callbackType.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type implements Callback.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute implements Callback.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil || callbackCtx.Invocation == nil {
		return nil
	}
	inv := callbackCtx.Invocation
	args := []any{"callback", string(c.callbackType), "invocation_id", inv.ID, "agent", inv.Agent, "phase", inv.Phase}
	if callbackCtx.Err != nil {
		args = append(args, "error", callbackCtx.Err)
	}
	keys := make([]string, 0, len(callbackCtx.Metadata))
	for k := range callbackCtx.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, callbackCtx.Metadata[k])
	}
	c.logger.Info("Dispatcher callback", args...)
	return nil
}
