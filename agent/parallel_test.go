package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/core"
)

func TestParallelAgent_Handle_MergesResponses(t *testing.T) {
	a := NewMockAgent("alpha")
	b := NewMockAgent("beta")
	a.On("Handle", mock.Anything, mock.Anything).Return(core.NewResult("alpha", "A"), nil).Once()
	b.On("Handle", mock.Anything, mock.Anything).Return(core.NewResult("beta", "B"), nil).Once()

	p := NewParallelAgent("fanout", 0, a, b)
	assert.Equal(t, "Parallel executor over 2 agents", p.Description())
	assert.Len(t, p.Children(), 2)

	res, err := p.Handle(context.Background(), core.NewTask("gather", nil))
	require.NoError(t, err)

	assert.Equal(t, "fanout", res.Agent())
	assert.Equal(t, map[string]any{"alpha": "A", "beta": "B"}, res.Response())

	steps := res[StepsKey].([]any)
	require.Len(t, steps, 2)
	assert.Equal(t, "fanout.alpha", steps[0].(map[string]any)["branch"])
	assert.Equal(t, "fanout.beta", steps[1].(map[string]any)["branch"])

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestParallelAgent_Handle_RunsConcurrently(t *testing.T) {
	var (
		running atomic.Int32
		peak    atomic.Int32
		release = make(chan struct{})
	)

	child := func(name string) core.Agent {
		m := NewMockAgent(name)
		m.On("Handle", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		}).Return(core.NewResult(name, name), nil)
		return m
	}

	p := NewParallelAgent("fanout", 0, child("a"), child("b"), child("c"))

	done := make(chan error, 1)
	go func() {
		_, err := p.Handle(context.Background(), core.NewTask("gather", nil))
		done <- err
	}()

	require.Eventually(t, func() bool { return running.Load() == 3 }, time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, int32(3), peak.Load())
}

func TestParallelAgent_Handle_JoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	a := NewMockAgent("alpha")
	b := NewMockAgent("beta")
	c := NewMockAgent("gamma")
	a.On("Handle", mock.Anything, mock.Anything).Return(nil, errA)
	b.On("Handle", mock.Anything, mock.Anything).Return(nil, errB)
	c.On("Handle", mock.Anything, mock.Anything).Return(core.NewResult("gamma", "ok"), nil)

	_, err := NewParallelAgent("fanout", 0, a, b, c).Handle(context.Background(), core.NewTask("gather", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	c.AssertExpectations(t)
}

func TestParallelAgent_Handle_Timeout(t *testing.T) {
	slow := NewMockAgent("slow")
	slow.On("Handle", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	_, err := NewParallelAgent("fanout", 20*time.Millisecond, slow).Handle(context.Background(), core.NewTask("gather", nil))
	require.Error(t, err)
}

func TestParallelAgent_Handle_ChildTasksAreIsolated(t *testing.T) {
	mutator := NewMockAgent("mutator")
	mutator.On("Handle", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(core.Task)["scratch"] = true
	}).Return(core.NewResult("mutator", "done"), nil)

	task := core.NewTask("gather", nil)
	_, err := NewParallelAgent("fanout", 0, mutator).Handle(context.Background(), task)
	require.NoError(t, err)

	_, leaked := task["scratch"]
	assert.False(t, leaked)
}

func TestParallelAgent_Handle_NoChildren(t *testing.T) {
	_, err := NewParallelAgent("empty", 0).Handle(context.Background(), core.NewTask("x", nil))
	assert.EqualError(t, err, "parallel agent empty has no children")
}
