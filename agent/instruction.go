package agent

import (
	"context"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the task, environment, etc.
type Provider interface {
	Instruction(ctx context.Context, task core.Task) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, task core.Task) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, task core.Task) (string, error) { return f(ctx, task) }

// Instruction represents either a static instruction template or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template. The
// template is rendered with the task fields (see RenderTemplate helpers).
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, task core.Task) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction has neither text nor provider.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider or rendering
// the template against task.
func (i Instruction) Resolve(ctx context.Context, task core.Task) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, task)
	}
	return util.RenderTemplate(i.text, templateState(task))
}

// templateState exposes the task to templates with the dispatch key always
// resolved (sentinel included).
func templateState(task core.Task) map[string]any {
	state := task.Clone()
	state[core.TaskKey] = task.Name()
	return state
}
