package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/history"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/workflow"
)

// Config defines tuning parameters for dispatching.
//
// Example:
//
//	cfg := Config{
//	    MaxConcurrentInvocations: 50,
//	    InvocationTimeout:        30 * time.Second,
//	    BatchConcurrency:         8,
//	}
type Config struct {
	// MaxConcurrentInvocations limits how many workflow steps may run at
	// once across all callers. Callers beyond the limit wait for a free slot
	// or for their context to end. Set to 0 for unlimited.
	MaxConcurrentInvocations int

	// InvocationTimeout bounds a single workflow step. The caller's context
	// deadline still applies when it is earlier. Set to 0 to disable.
	InvocationTimeout time.Duration

	// BatchConcurrency limits the fan-out of RouteBatch. Values below 1 fall
	// back to MaxConcurrentInvocations, or to the batch size when that is
	// unlimited as well.
	BatchConcurrency int
}

// DefaultConfig provides conservative defaults:
//   - MaxConcurrentInvocations: 10
//   - InvocationTimeout: disabled
//   - BatchConcurrency: 4
var DefaultConfig = Config{
	MaxConcurrentInvocations: 10,
	BatchConcurrency:         4,
}

// Options configures a Dispatcher using the functional options pattern.
//
// Example:
//
//	d := dispatcher.New(func(o *dispatcher.Options) {
//	    o.Config.InvocationTimeout = 10 * time.Second
//	    o.DefaultAgent = "claude"
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Engine advances tasks through their phases. Defaults to
	// workflow.Default().
	Engine *workflow.Engine

	// History records every dispatched invocation. Defaults to an in-memory
	// store holding the most recent history.DefaultCapacity records.
	History core.InvocationStore

	// Callbacks receives lifecycle hooks. Defaults to an empty manager.
	Callbacks *CallbackManager

	// DefaultAgent names the agent used when a dispatch names none. When
	// empty, the first registered agent becomes the default.
	DefaultAgent string

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher routes tasks to registered agents.
//
// Concurrency model:
//   - Registration and lookup are guarded by an RWMutex which is never held
//     while an agent runs.
//   - A counting semaphore bounds concurrent workflow steps; waiting for a
//     slot honours the caller's context.
//   - Each step runs under its own derived context carrying the
//     per-invocation timeout.
//
// Failed steps are recorded in history like successful ones, with the error
// text in Invocation.Error.
type Dispatcher struct {
	agents       map[string]core.Agent
	defaultAgent string
	mu           sync.RWMutex

	config    Config
	engine    *workflow.Engine
	history   core.InvocationStore
	callbacks *CallbackManager
	logger    logging.Logger

	slots chan struct{}
}

// New creates a Dispatcher with the given options applied over the defaults.
func New(optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Engine == nil {
		opts.Engine = workflow.Default()
	}

	if opts.History == nil {
		opts.History = history.NewInMemoryStore(history.DefaultCapacity)
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	d := &Dispatcher{
		agents:       make(map[string]core.Agent),
		defaultAgent: opts.DefaultAgent,
		config:       opts.Config,
		engine:       opts.Engine,
		history:      opts.History,
		callbacks:    opts.Callbacks,
		logger:       opts.Logger,
	}

	if opts.Config.MaxConcurrentInvocations > 0 {
		d.slots = make(chan struct{}, opts.Config.MaxConcurrentInvocations)
	}

	return d
}

// Register adds an agent under its name, replacing any agent registered
// under the same name.
func (d *Dispatcher) Register(agent core.Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := agent.Name()
	d.agents[name] = agent

	if d.defaultAgent == "" {
		d.defaultAgent = name
	}

	d.logger.Info("Agent registered", "agent", name)
}

// SetDefaultAgent makes the named, already registered agent the default.
func (d *Dispatcher) SetDefaultAgent(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.agents[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	d.defaultAgent = name

	return nil
}

// GetAgent returns the agent registered under name.
func (d *Dispatcher) GetAgent(name string) (core.Agent, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	agent, ok := d.agents[name]

	return agent, ok
}

// Agents describes the registered agents sorted by name.
func (d *Dispatcher) Agents() []AgentInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	infos := make([]AgentInfo, 0, len(d.agents))
	for name, agent := range d.agents {
		infos = append(infos, AgentInfo{
			AgentInfo: core.DescribeAgent(agent, ""),
			Default:   name == d.defaultAgent,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// DefaultAgent returns the agent used when a dispatch names none.
func (d *Dispatcher) DefaultAgent() (core.Agent, error) {
	return d.resolve("")
}

// Engine returns the workflow engine used for every step.
func (d *Dispatcher) Engine() *workflow.Engine { return d.engine }

// History returns the store recording dispatched invocations.
func (d *Dispatcher) History() core.InvocationStore { return d.history }

// Route runs the entry step of the workflow for task. It is shorthand for
// Execute at workflow.PhaseInit.
func (d *Dispatcher) Route(ctx context.Context, task core.Task, agentName string) (core.Invocation, error) {
	return d.Execute(ctx, workflow.PhaseInit, task, agentName)
}

// Execute runs one workflow step for task starting at phase, using the named
// agent or the default agent when agentName is empty.
//
// The returned Invocation is populated whenever an agent was resolved, also
// on failure; its ID can be used to look the record up in History. Errors
// from the engine are returned unchanged so callers can inspect them with
// errors.As.
func (d *Dispatcher) Execute(ctx context.Context, phase workflow.Phase, task core.Task, agentName string) (core.Invocation, error) {
	agent, err := d.resolve(agentName)
	if err != nil {
		return core.Invocation{}, err
	}

	inv := core.Invocation{
		ID:        util.NewID(),
		Agent:     agent.Name(),
		Task:      task.Clone(),
		Phase:     string(phase),
		StartedAt: time.Now(),
	}

	if err := d.acquire(ctx); err != nil {
		return d.finish(ctx, inv, err)
	}
	defer d.release()

	stepCtx := ctx
	if d.config.InvocationTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, d.config.InvocationTimeout)
		defer cancel()
	}

	if err := d.callbacks.ExecuteCallbacks(stepCtx, CallbackBeforeInvocation, &CallbackContext{
		Invocation:   &inv,
		CallbackType: CallbackBeforeInvocation,
		Metadata:     map[string]any{MetadataTask: task.Name()},
	}); err != nil {
		return d.finish(ctx, inv, fmt.Errorf("before invocation callback: %w", err))
	}

	out, err := d.engine.Step(stepCtx, agent, phase, task.Clone())
	inv.Invoked = out.Invoked
	if err == nil {
		inv.NextPhase = string(out.Next)
		inv.Result = out.Result
	}

	return d.finish(ctx, inv, err)
}

// RouteBatch routes every task concurrently to the named agent (or the
// default agent) and returns one result per task in input order. A failing
// task does not affect the others.
func (d *Dispatcher) RouteBatch(ctx context.Context, tasks []core.Task, agentName string) []BatchResult {
	results := make([]BatchResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	p := pool.New().WithMaxGoroutines(d.batchConcurrency(len(tasks)))

	for i, task := range tasks {
		p.Go(func() {
			inv, err := d.Route(ctx, task, agentName)
			results[i] = BatchResult{Index: i, Invocation: inv, Err: err}
		})
	}

	p.Wait()

	return results
}

func (d *Dispatcher) batchConcurrency(n int) int {
	switch {
	case d.config.BatchConcurrency > 0:
		return min(d.config.BatchConcurrency, n)
	case d.config.MaxConcurrentInvocations > 0:
		return min(d.config.MaxConcurrentInvocations, n)
	default:
		return n
	}
}

func (d *Dispatcher) resolve(name string) (core.Agent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.agents) == 0 {
		return nil, ErrNoAgents
	}

	if name == "" {
		name = d.defaultAgent
	}

	agent, ok := d.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	return agent, nil
}

func (d *Dispatcher) acquire(ctx context.Context) error {
	if d.slots == nil {
		return ctx.Err()
	}

	select {
	case d.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) release() {
	if d.slots != nil {
		<-d.slots
	}
}

// finish records inv, runs the after or error callbacks and logs the call.
func (d *Dispatcher) finish(ctx context.Context, inv core.Invocation, err error) (core.Invocation, error) {
	inv.Duration = time.Since(inv.StartedAt)
	if err != nil {
		inv.Error = err.Error()
	}

	if saveErr := d.history.Save(inv); saveErr != nil {
		d.logger.Warn("Failed to record invocation", "invocation_id", inv.ID, "error", saveErr)
	}

	callbackType := CallbackAfterInvocation
	if err != nil {
		callbackType = CallbackOnError
	}

	if cbErr := d.callbacks.ExecuteCallbacks(ctx, callbackType, &CallbackContext{
		Invocation:   &inv,
		CallbackType: callbackType,
		Err:          err,
		Metadata: map[string]any{
			MetadataTask:     inv.Task.Name(),
			MetadataDuration: inv.Duration,
			MetadataInvoked:  inv.Invoked,
		},
	}); cbErr != nil {
		d.logger.Warn("Callback failed", "callback", string(callbackType), "invocation_id", inv.ID, "error", cbErr)
	}

	if l, ok := d.logger.(agentCallLogger); ok {
		l.WithInvocation(inv.ID).LogAgentCall(inv.Agent, inv.Phase, inv.Duration, err == nil, err)
	} else if err != nil {
		d.logger.Error("Invocation failed", "invocation_id", inv.ID, "agent", inv.Agent, "phase", inv.Phase, "duration", inv.Duration, "error", err)
	} else {
		d.logger.Debug("Invocation completed", "invocation_id", inv.ID, "agent", inv.Agent, "phase", inv.Phase, "next_phase", inv.NextPhase, "duration", inv.Duration)
	}

	return inv, err
}

// agentCallLogger is satisfied by *logging.RouterLogger.
type agentCallLogger interface {
	WithInvocation(id string) *logging.RouterLogger
}
