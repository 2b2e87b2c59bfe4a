package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
)

// SandboxTaskIDKey holds the sandbox's task id on results from SandboxAgent.
const SandboxTaskIDKey = "sandbox_task_id"

// SandboxRunner submits a task to a sandbox and waits for its result.
// *sandbox.Client implements it.
type SandboxRunner interface {
	Run(ctx context.Context, task map[string]any) (string, map[string]any, error)
}

// SandboxAgentOptions configures a SandboxAgent.
type SandboxAgentOptions struct {
	Description string
	Logger      logging.Logger
}

// SandboxAgent hands tasks to a process-isolated sandbox.
type SandboxAgent struct {
	BaseAgent
	runner SandboxRunner
	logger logging.Logger
}

// NewSandboxAgent creates a SandboxAgent backed by runner.
func NewSandboxAgent(name string, runner SandboxRunner, optFns ...func(o *SandboxAgentOptions)) *SandboxAgent {
	opts := SandboxAgentOptions{
		Description: fmt.Sprintf("Sandbox executor %s", name),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &SandboxAgent{BaseAgent: NewBaseAgent(name), runner: runner, logger: opts.Logger}
	a.SetDescription(opts.Description)

	return a
}

// Handle implements core.Agent. The sandbox result document becomes the
// response payload.
func (a *SandboxAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	payload := task.Clone()
	payload[core.TaskKey] = task.Name()

	id, out, err := a.runner.Run(ctx, payload)
	if err != nil {
		a.logger.Error("Sandbox task failed", "agent", a.Name(), "sandbox_task_id", id, "error", err)
		return nil, core.NewExecutorError(a.Name(), core.CodeSandboxError, err)
	}

	res := core.NewResult(a.Name(), out)
	res[SandboxTaskIDKey] = id

	return res, nil
}
