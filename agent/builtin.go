package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentrouter/core"
)

const (
	// DefaultBuiltinName is the identity of the default built-in executor.
	DefaultBuiltinName = "claude"
	// DefaultBuiltinLabel is the display label used in its responses.
	DefaultBuiltinLabel = "Claude"
)

// BuiltinOptions configures a Builtin executor.
type BuiltinOptions struct {
	// Label is used in the response text ("<Label> task '<name>' completed").
	Label string

	// Description overrides the generated description.
	Description string
}

// Builtin is a stub executor that reports which task it completed. It does no
// I/O and is deterministic, standing in for a real backend.
type Builtin struct {
	BaseAgent
	label string
}

// NewBuiltin creates a Builtin executor named name.
func NewBuiltin(name string, optFns ...func(o *BuiltinOptions)) *Builtin {
	opts := BuiltinOptions{
		Label:       DefaultBuiltinLabel,
		Description: "Built-in executor that acknowledges tasks without side effects",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	b := &Builtin{BaseAgent: NewBaseAgent(name), label: opts.Label}
	b.SetDescription(opts.Description)

	return b
}

// NewDefaultBuiltin returns the "claude" built-in executor.
func NewDefaultBuiltin() *Builtin { return NewBuiltin(DefaultBuiltinName) }

// Label returns the display label.
func (b *Builtin) Label() string { return b.label }

// Handle implements core.Agent. A task without dispatch key is reported as
// the "unknown" task rather than failing.
func (b *Builtin) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return core.NewResult(b.Name(), fmt.Sprintf("%s task '%s' completed", b.label, task.Name())), nil
}
