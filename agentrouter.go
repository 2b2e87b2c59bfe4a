// Package agentrouter provides a high-level façade over the dispatcher and
// workflow engine for routing tasks to pluggable agents. Most applications
// interact with this package by:
//  1. Creating a Router via New() (the built-in "claude" agent is registered
//     unless disabled)
//  2. Registering further agents (model, sandbox, MCP or custom)
//  3. Routing tasks (Route) or advancing them phase by phase (Execute)
//
// The façade delegates to dispatcher.Dispatcher, which in turn runs each step
// through workflow.Engine. All defaults are in-memory and safe for local
// development and testing.
package agentrouter

import (
	"context"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/dispatcher"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/workflow"
)

// Version is the agentrouter release.
const Version = "0.1.0"

// Options configures the Router instance.
type Options struct {
	// DispatcherConfig tunes concurrency, timeouts and batch fan-out.
	DispatcherConfig dispatcher.Config

	// Table replaces the default phase table when non-nil.
	Table workflow.Table

	// History records invocations (defaults to a bounded in-memory store).
	History core.InvocationStore

	// DefaultAgent names the agent used when a call names none.
	DefaultAgent string

	// DisableBuiltin skips registering the built-in "claude" agent.
	DisableBuiltin bool

	// Callbacks receives dispatcher lifecycle hooks.
	Callbacks *dispatcher.CallbackManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Router is the high-level façade aggregating the dispatcher and engine.
type Router struct {
	dispatcher *dispatcher.Dispatcher
}

// New creates a Router. It fails only if a custom Table is invalid.
func New(optFns ...func(o *Options)) (*Router, error) {
	opts := Options{
		DispatcherConfig: dispatcher.DefaultConfig,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	engine := workflow.Default()
	if opts.Table != nil {
		var err error
		engine, err = workflow.New(func(o *workflow.Options) {
			o.Table = opts.Table
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, err
		}
	}

	d := dispatcher.New(func(o *dispatcher.Options) {
		o.Config = opts.DispatcherConfig
		o.Engine = engine
		o.History = opts.History
		o.DefaultAgent = opts.DefaultAgent
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})

	if !opts.DisableBuiltin {
		d.Register(agent.NewDefaultBuiltin())
	}

	return &Router{dispatcher: d}, nil
}

// RegisterAgent adds an agent to the underlying dispatcher.
func (r *Router) RegisterAgent(a core.Agent) { r.dispatcher.Register(a) }

// Route runs the entry step of the workflow for task on the named agent (or
// the default agent when agentName is empty).
func (r *Router) Route(ctx context.Context, task core.Task, agentName string) (core.Invocation, error) {
	return r.dispatcher.Route(ctx, task, agentName)
}

// Execute runs one workflow step for task starting at phase and returns the
// next phase.
func (r *Router) Execute(ctx context.Context, phase workflow.Phase, task core.Task, agentName string) (workflow.Phase, error) {
	inv, err := r.dispatcher.Execute(ctx, phase, task, agentName)
	if err != nil {
		return "", err
	}
	return workflow.Phase(inv.NextPhase), nil
}

// Run drives task from PhaseInit until the engine reaches a terminal phase
// and returns the agent's result together with the final phase.
func (r *Router) Run(ctx context.Context, task core.Task, agentName string) (core.Result, workflow.Phase, error) {
	table := r.dispatcher.Engine().Table()
	phase := workflow.PhaseInit

	var result core.Result

	for !table.IsTerminal(phase) {
		inv, err := r.dispatcher.Execute(ctx, phase, task, agentName)
		if err != nil {
			return nil, phase, err
		}
		if inv.Invoked {
			result = inv.Result
		}
		phase = workflow.Phase(inv.NextPhase)
	}

	return result, phase, nil
}

// Dispatcher exposes the underlying dispatcher.
func (r *Router) Dispatcher() *dispatcher.Dispatcher { return r.dispatcher }
