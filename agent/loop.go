package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
)

// IterationsKey records how many iterations a LoopAgent ran.
const IterationsKey = "iterations"

// ErrMaxIterations is returned by a LoopAgent configured with
// WithRequirePredicate when the predicate never matched.
var ErrMaxIterations = errors.New("loop reached max iterations without satisfying predicate")

// LoopAgent executes a child agent repeatedly.
//
// The loop terminates when:
//   - The predicate matches the child's result
//   - The maximum iteration count is reached
//   - A child error occurs (when stopOnError is true, the default)
//   - The context is cancelled
//
// From the second iteration on, the child's task carries the previous
// iteration's result under PreviousKey, so polling executors can make
// progress. The composite response is the last successful child response.
type LoopAgent struct {
	BaseAgent
	child            core.Agent             // Child agent to execute repeatedly
	maxIters         int                    // Maximum number of iterations allowed
	interval         time.Duration          // Time delay between iterations
	stopOnError      bool                   // Whether to stop execution on child agent errors
	requirePredicate bool                   // Fail with ErrMaxIterations if predicate never matched
	predicate        func(core.Result) bool // Custom termination condition based on output
	logger           logging.Logger
}

// NewLoopAgent creates a loop over child. Defaults: 100 iterations, no
// interval, stop on first error.
func NewLoopAgent(name string, child core.Agent, opts ...LoopOption) *LoopAgent {
	la := &LoopAgent{
		BaseAgent:   NewBaseAgent(name),
		child:       child,
		maxIters:    100,
		stopOnError: true,
		logger:      logging.NoOpLogger{},
	}

	for _, o := range opts {
		o(la)
	}

	la.SetDescription(fmt.Sprintf("Loop executor over %s (max %d iterations)", child.Name(), la.maxIters))

	return la
}

// LoopOption configures a LoopAgent.
type LoopOption func(*LoopAgent)

// WithMaxIters sets the maximum number of iterations (values < 1 are ignored).
func WithMaxIters(n int) LoopOption {
	return func(l *LoopAgent) {
		if n > 0 {
			l.maxIters = n
		}
	}
}

// WithInterval sets the delay between iterations.
func WithInterval(d time.Duration) LoopOption {
	return func(l *LoopAgent) { l.interval = d }
}

// WithPredicate stops the loop as soon as pred returns true for a child result.
func WithPredicate(pred func(core.Result) bool) LoopOption {
	return func(l *LoopAgent) { l.predicate = pred }
}

// WithRequirePredicate makes exhausting all iterations without a predicate
// match an error.
func WithRequirePredicate() LoopOption {
	return func(l *LoopAgent) { l.requirePredicate = true }
}

// WithContinueOnError keeps iterating after child failures.
func WithContinueOnError() LoopOption {
	return func(l *LoopAgent) { l.stopOnError = false }
}

// WithLoopLogger sets the logger used for iteration diagnostics.
func WithLoopLogger(logger logging.Logger) LoopOption {
	return func(l *LoopAgent) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Handle implements core.Agent.
func (l *LoopAgent) Handle(ctx context.Context, task core.Task) (core.Result, error) {
	var (
		last    core.Result
		lastErr error
		next    = task.Clone()
		iters   int
	)

	for i := 0; i < l.maxIters; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		iters = i + 1
		l.logger.Debug("Loop iteration started", "agent", l.Name(), "iteration", iters)

		res, err := l.child.Handle(ctx, next)
		if err == nil && res == nil {
			err = invalidResult(l.child.Name())
		}

		if err != nil {
			if l.stopOnError {
				return nil, fmt.Errorf("loop iteration %d failed for agent %s: %w", iters, l.child.Name(), err)
			}
			l.logger.Warn("Loop iteration failed, continuing", "agent", l.Name(), "iteration", iters, "error", err)
			lastErr = err
		} else {
			last = res
			lastErr = nil

			if l.predicate != nil && l.predicate(res) {
				return l.result(last, iters), nil
			}

			next = task.Clone()
			next[PreviousKey] = map[string]any(res.Clone())
		}

		if l.interval > 0 && i < l.maxIters-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.interval):
			}
		}
	}

	if last == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("loop %s produced no result: %w", l.Name(), lastErr)
		}
		return nil, invalidResult(l.Name())
	}

	if l.predicate != nil && l.requirePredicate {
		return nil, fmt.Errorf("loop %s after %d iterations: %w", l.Name(), iters, ErrMaxIterations)
	}

	return l.result(last, iters), nil
}

func (l *LoopAgent) result(last core.Result, iters int) core.Result {
	return core.NewResult(l.Name(), last.Response()).With(IterationsKey, iters)
}
