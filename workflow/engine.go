package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
)

// ErrNoAgent is returned when a phase requires an agent but none was bound.
var ErrNoAgent = errors.New("workflow: no agent bound to phase that requires one")

// Options configures an Engine.
type Options struct {
	// Table defines phases and transitions. Defaults to DefaultTable.
	Table Table

	// Logger receives transition and agent call records. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Outcome describes a single step through the workflow.
type Outcome struct {
	From     Phase         `json:"from"`
	Next     Phase         `json:"next"`
	Invoked  bool          `json:"invoked"`
	Result   core.Result   `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Engine advances a task through the phases of its table. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	table  Table
	logger logging.Logger
}

// New creates an Engine. The table is copied and validated.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Table:  DefaultTable(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if err := opts.Table.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		table:  opts.Table.Clone(),
		logger: opts.Logger,
	}, nil
}

// Default returns an Engine over DefaultTable.
func Default() *Engine {
	return &Engine{table: DefaultTable(), logger: logging.NoOpLogger{}}
}

// Table returns a copy of the engine's transition table.
func (e *Engine) Table() Table { return e.table.Clone() }

// Execute leaves phase and returns the next one. At phases that invoke the
// agent, agent.Handle(ctx, task) must succeed or the call fails without
// advancing.
func (e *Engine) Execute(ctx context.Context, agent core.Agent, phase Phase, task core.Task) (Phase, error) {
	out, err := e.Step(ctx, agent, phase, task)
	if err != nil {
		return "", err
	}
	return out.Next, nil
}

// Step is Execute that also reports whether the agent ran and what it
// returned.
func (e *Engine) Step(ctx context.Context, agent core.Agent, phase Phase, task core.Task) (Outcome, error) {
	if len(e.table) == 0 {
		return Outcome{}, &EmptyWorkflowError{}
	}

	tr, ok := e.table[phase]
	if !ok {
		if e.table.IsTerminal(phase) {
			return Outcome{}, &TerminalStateError{Phase: phase}
		}
		return Outcome{}, &UnknownStateError{Phase: string(phase)}
	}

	out := Outcome{From: phase, Next: tr.Next}

	if tr.InvokeAgent {
		if agent == nil {
			return Outcome{}, ErrNoAgent
		}

		start := time.Now()
		res, err := e.invoke(ctx, agent, task)
		out.Duration = time.Since(start)
		out.Invoked = true

		if err == nil && res == nil {
			err = &core.ExecutorError{Agent: agent.Name(), Code: core.CodeInvalidResult, Message: "agent returned no result"}
		}

		e.logAgentCall(agent.Name(), phase, out.Duration, err)

		if err != nil {
			// The phase does not advance; the partial outcome still reports that
			// the agent ran and for how long.
			return Outcome{From: phase, Invoked: true, Duration: out.Duration}, &PhaseError{Phase: phase, Agent: agent.Name(), Err: err}
		}

		out.Result = res
	}

	e.logTransition(out)

	return out, nil
}

// transitionLogger is satisfied by *logging.RouterLogger.
type transitionLogger interface {
	LogAgentCall(agent, phase string, dur time.Duration, success bool, err error)
	LogTransition(from, to string, invoked bool)
	ErrorWithStack(err error, msg string, args ...any)
}

func (e *Engine) logAgentCall(agent string, phase Phase, dur time.Duration, err error) {
	if l, ok := e.logger.(transitionLogger); ok {
		l.LogAgentCall(agent, string(phase), dur, err == nil, err)
		return
	}

	if err != nil {
		e.logger.Error("Agent call failed", "agent", agent, "phase", string(phase), "duration", dur, "error", err)
		return
	}

	e.logger.Debug("Agent call completed", "agent", agent, "phase", string(phase), "duration", dur)
}

func (e *Engine) logTransition(out Outcome) {
	if l, ok := e.logger.(transitionLogger); ok {
		l.LogTransition(string(out.From), string(out.Next), out.Invoked)
		return
	}

	e.logger.Debug("Phase transition", "from", string(out.From), "to", string(out.Next), "agent_invoked", out.Invoked)
}

// invoke runs Handle but returns as soon as ctx is done, even if the agent
// ignores its context. A panicking agent is reported as an error.
func (e *Engine) invoke(ctx context.Context, agent core.Agent, task core.Task) (core.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type reply struct {
		res core.Result
		err error
	}

	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("agent panic: %v", r)
				if l, ok := e.logger.(transitionLogger); ok {
					l.ErrorWithStack(err, "Agent panicked", "agent", agent.Name())
				} else {
					e.logger.Error("Agent panicked", "agent", agent.Name(), "error", err)
				}
				done <- reply{err: err}
			}
		}()
		res, err := agent.Handle(ctx, task)
		done <- reply{res: res, err: err}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ParsePhase converts a raw phase name into a Phase of the engine's table.
func (e *Engine) ParsePhase(s string) (Phase, error) { return e.table.ParsePhase(s) }
