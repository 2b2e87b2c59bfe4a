package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hupe1980/agentrouter/core"
)

// ParallelAgent coordinates the concurrent execution of multiple child agents.
//
// Every child receives its own clone of the task. The composite response is a
// map from child name to that child's response; step records are attached
// under StepsKey in declaration order. If any child fails the composite fails
// with all child errors joined.
//
// ParallelAgent is ideal for:
//   - Independent task processing
//   - Data gathering from multiple backends
//   - Scenarios where order doesn't matter
type ParallelAgent struct {
	BaseAgent               // Embedded base agent functionality
	children  []core.Agent  // Child agents to execute in parallel
	timeout   time.Duration // Maximum execution time for all children (0 = none)
}

// NewParallelAgent creates a new parallel execution coordinator.
//
// A positive timeout bounds the whole fan-out; children are expected to honour
// context cancellation.
func NewParallelAgent(name string, timeout time.Duration, children ...core.Agent) *ParallelAgent {
	p := &ParallelAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
		timeout:   timeout,
	}
	p.SetDescription(fmt.Sprintf("Parallel executor over %d agents", len(children)))

	return p
}

// Children returns the child agents.
func (p *ParallelAgent) Children() []core.Agent { return p.children }

// Handle implements core.Agent.
func (p *ParallelAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	if len(p.children) == 0 {
		return nil, fmt.Errorf("parallel agent %s has no children", p.Name())
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	results := make([]core.Result, len(p.children))

	wp := pool.New().WithContext(ctx)
	for i, child := range p.children {
		wp.Go(func(ctx context.Context) error {
			res, err := child.Handle(ctx, task.Clone())
			if err != nil {
				return fmt.Errorf("parallel execution failed for agent %s: %w", child.Name(), err)
			}
			if res == nil {
				return invalidResult(child.Name())
			}
			results[i] = res

			return nil
		})
	}

	if err := wp.Wait(); err != nil {
		return nil, err
	}

	responses := make(map[string]any, len(p.children))
	steps := make([]any, 0, len(p.children))
	for i, child := range p.children {
		responses[child.Name()] = results[i].Response()
		steps = append(steps, stepRecord(p.Name(), child.Name(), results[i]))
	}

	return core.NewResult(p.Name(), responses).With(StepsKey, steps), nil
}
