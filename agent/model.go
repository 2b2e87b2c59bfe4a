package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
)

// DefaultPrompt renders the task name followed by its context, if any.
const DefaultPrompt = `{{.task}}{{with .context}}

Context: {{json .}}{{end}}`

// Result keys added by ModelAgent.
const (
	ModelKey        = "model"
	FinishReasonKey = "finish_reason"
	UsageKey        = "usage"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	// Instruction becomes the system prompt.
	Instruction Instruction

	// Prompt is the user message template rendered with the task fields.
	Prompt string

	// EnableStreaming asks the model for a streamed response; only the final
	// chunk is used.
	EnableStreaming bool

	// Timeout bounds a single model call; zero relies on the caller's context.
	Timeout time.Duration

	Description string

	Logger logging.Logger
}

// ModelAgent is an executor backed by a language model. It renders a prompt
// from the task, generates a completion and returns the text as response.
type ModelAgent struct {
	BaseAgent
	llm         model.Model
	instruction Instruction
	prompt      string
	stream      bool
	timeout     time.Duration
	logger      logging.Logger
}

// NewModelAgent creates a new model-based executor.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, an executor completing tasks handed to you by a dispatcher. Reply with the task outcome only.", name)),
		Prompt:      DefaultPrompt,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &ModelAgent{
		BaseAgent:   NewBaseAgent(name),
		llm:         llm,
		instruction: opts.Instruction,
		prompt:      opts.Prompt,
		stream:      opts.EnableStreaming,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	} else {
		info := llm.Info()
		a.SetDescription(fmt.Sprintf("Model executor using %s (%s)", info.Name, info.Provider))
	}

	return a
}

// Model returns the underlying model.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Handle implements core.Agent.
func (a *ModelAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req, err := a.buildRequest(ctx, task)
	if err != nil {
		return nil, core.NewExecutorError(a.Name(), core.CodeModelError, err)
	}

	info := a.llm.Info()
	start := time.Now()

	respCh, errCh := a.llm.Generate(ctx, req)

	resp, err := model.Collect(ctx, respCh, errCh)
	if err != nil {
		a.logger.Error("Model call failed", "agent", a.Name(), "model", info.Name, "duration", time.Since(start), "error", err)
		return nil, core.NewExecutorError(a.Name(), core.CodeModelError, err)
	}

	a.logger.Debug("Model call completed", "agent", a.Name(), "model", info.Name, "duration", time.Since(start), "finish_reason", resp.FinishReason)

	res := core.NewResult(a.Name(), resp.Content.Text())
	res[ModelKey] = info.Name
	res[FinishReasonKey] = resp.FinishReason
	if resp.Usage != nil {
		res[UsageKey] = *resp.Usage
	}

	return res, nil
}

func (a *ModelAgent) buildRequest(ctx context.Context, task core.Task) (model.Request, error) {
	var instructions string
	if !a.instruction.IsZero() {
		text, err := a.instruction.Resolve(ctx, task)
		if err != nil {
			return model.Request{}, fmt.Errorf("resolve instruction: %w", err)
		}
		instructions = text
	}

	prompt, err := util.RenderTemplate(a.prompt, templateState(task))
	if err != nil {
		return model.Request{}, fmt.Errorf("render prompt: %w", err)
	}

	return model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent("user", prompt)},
		Stream:       a.stream,
	}, nil
}
