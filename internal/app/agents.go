package app

import (
	"context"
	"fmt"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/model/anthropic"
	"github.com/hupe1980/agentrouter/model/openai"
	"github.com/hupe1980/agentrouter/sandbox"
)

// Resolver looks up an already constructed agent by name.
type Resolver func(name string) (core.Agent, bool)

// BuildAgent constructs the executor declared by ac. Composite kinds resolve
// their children through resolve. The returned closer is non-nil when the
// agent holds a connection (MCP) that must be released.
func BuildAgent(ctx context.Context, ac config.AgentConfig, resolve Resolver, logger logging.Logger) (core.Agent, io.Closer, error) {
	switch ac.Kind {
	case config.KindBuiltin:
		return agent.NewBuiltin(ac.Name, func(o *agent.BuiltinOptions) {
			if ac.Label != "" {
				o.Label = ac.Label
			}
			if ac.Description != "" {
				o.Description = ac.Description
			}
		}), nil, nil

	case config.KindOpenAI:
		llm := openai.NewModel(func(o *openai.Options) {
			o.Model = ac.Model
			o.APIKey = ac.APIKey
			o.BaseURL = ac.BaseURL
			if ac.Temperature != nil {
				o.Temperature = *ac.Temperature
			}
			if ac.MaxTokens > 0 {
				o.MaxCompletionTokens = ac.MaxTokens
			}
		})
		return newModelAgent(ac, llm, logger), nil, nil

	case config.KindAnthropic:
		llm := anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(ac.Model)
			o.APIKey = ac.APIKey
			o.BaseURL = ac.BaseURL
			if ac.Temperature != nil {
				o.Temperature = *ac.Temperature
			}
			if ac.MaxTokens > 0 {
				o.MaxTokens = ac.MaxTokens
			}
		})
		return newModelAgent(ac, llm, logger), nil, nil

	case config.KindSandbox:
		client := sandbox.NewClient(ac.URL, func(o *sandbox.Options) {
			if ac.Timeout > 0 {
				o.Timeout = ac.Timeout
			}
			if ac.PollInterval > 0 {
				o.PollInterval = ac.PollInterval
			}
			o.Headers = ac.Headers
			o.Logger = logger
		})
		return agent.NewSandboxAgent(ac.Name, client, func(o *agent.SandboxAgentOptions) {
			if ac.Description != "" {
				o.Description = ac.Description
			}
			o.Logger = logger
		}), nil, nil

	case config.KindMCP:
		c, err := agent.ConnectMCP(ctx, agent.MCPServerConfig{
			Transport: ac.Transport,
			Command:   ac.Command,
			Args:      ac.Args,
			Env:       ac.Env,
			URL:       ac.URL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("agent %s: %w", ac.Name, err)
		}
		return agent.NewMCPAgent(ac.Name, c, ac.Tool, func(o *agent.MCPAgentOptions) {
			o.ValidateArguments = ac.ValidateArguments
			if ac.Description != "" {
				o.Description = ac.Description
			}
			o.Logger = logger
		}), c, nil

	case config.KindSequential, config.KindParallel, config.KindLoop:
		ag, err := buildComposite(ac, resolve, logger)
		if err != nil {
			return nil, nil, err
		}
		return ag, nil, nil

	default:
		return nil, nil, fmt.Errorf("agent %s: unknown kind %q", ac.Name, ac.Kind)
	}
}

func buildComposite(ac config.AgentConfig, resolve Resolver, logger logging.Logger) (core.Agent, error) {
	if resolve == nil {
		return nil, fmt.Errorf("agent %s: no resolver for children", ac.Name)
	}

	children := make([]core.Agent, 0, len(ac.Children))
	for _, name := range ac.Children {
		child, ok := resolve(name)
		if !ok {
			return nil, fmt.Errorf("agent %s: unknown child %q", ac.Name, name)
		}
		children = append(children, child)
	}

	var composite interface {
		core.Agent
		SetDescription(string)
	}

	switch ac.Kind {
	case config.KindSequential:
		composite = agent.NewSequentialAgent(ac.Name, children...)
	case config.KindParallel:
		composite = agent.NewParallelAgent(ac.Name, ac.Timeout, children...)
	default:
		if len(children) != 1 {
			return nil, fmt.Errorf("agent %s: loop requires exactly one child", ac.Name)
		}
		composite = agent.NewLoopAgent(ac.Name, children[0],
			agent.WithMaxIters(ac.MaxIterations),
			agent.WithInterval(ac.Interval),
			agent.WithLoopLogger(logger),
		)
	}

	if ac.Description != "" {
		composite.SetDescription(ac.Description)
	}

	return composite, nil
}

func newModelAgent(ac config.AgentConfig, llm model.Model, logger logging.Logger) *agent.ModelAgent {
	return agent.NewModelAgent(ac.Name, llm, func(o *agent.ModelAgentOptions) {
		if ac.Instruction != "" {
			o.Instruction = agent.NewInstructionFromText(ac.Instruction)
		}
		if ac.Prompt != "" {
			o.Prompt = ac.Prompt
		}
		if ac.Description != "" {
			o.Description = ac.Description
		}
		o.EnableStreaming = ac.Stream
		o.Timeout = ac.Timeout
		o.Logger = logger
	})
}
