package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentrouter/core"
)

const (
	// PreviousKey carries the result of the preceding step into the task
	// handed to the next child of a SequentialAgent.
	PreviousKey = "previous"
	// StepsKey lists the per-child step records of a composite result.
	StepsKey = "steps"
)

// SequentialAgent coordinates the execution of multiple child agents in sequence.
//
// Each child receives a clone of the original task; from the second child on,
// the clone also carries the previous child's result under PreviousKey. The
// composite response is the response of the last child, and every step is
// recorded under StepsKey.
//
// SequentialAgent is ideal for:
//   - Multi-step processing pipelines
//   - Workflows requiring specific execution order
//   - Scenarios where agent outputs build upon each other
type SequentialAgent struct {
	BaseAgent              // Embedded base agent functionality
	children  []core.Agent // Child agents to execute in sequence
}

// NewSequentialAgent creates a new sequential execution coordinator.
//
// The agent will execute the provided child agents in the order they are
// specified.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	s := &SequentialAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
	}
	s.SetDescription(fmt.Sprintf("Sequential executor over %d agents", len(children)))

	return s
}

// Children returns the child agents in execution order.
func (s *SequentialAgent) Children() []core.Agent { return s.children }

// Handle implements core.Agent. It executes each child agent in order;
// errors stop further processing immediately.
func (s *SequentialAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	if len(s.children) == 0 {
		return nil, fmt.Errorf("sequential agent %s has no children", s.Name())
	}

	var (
		last  core.Result
		steps = make([]any, 0, len(s.children))
		next  = task.Clone()
	)

	for _, child := range s.children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := child.Handle(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
		if res == nil {
			return nil, invalidResult(child.Name())
		}

		steps = append(steps, stepRecord(s.Name(), child.Name(), res))
		last = res

		next = task.Clone()
		next[PreviousKey] = map[string]any(res.Clone())
	}

	return core.NewResult(s.Name(), last.Response()).With(StepsKey, steps), nil
}
