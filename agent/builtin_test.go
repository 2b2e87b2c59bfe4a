package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/agentrouter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Handle(t *testing.T) {
	b := NewDefaultBuiltin()

	res, err := b.Handle(context.Background(), core.Task{"task": "translate"})

	require.NoError(t, err)
	assert.Equal(t, core.Result{
		"status":   "success",
		"response": "Claude task 'translate' completed",
		"agent":    "claude",
	}, res)
}

func TestBuiltin_MissingTaskUsesSentinel(t *testing.T) {
	b := NewDefaultBuiltin()

	for _, task := range []core.Task{nil, {}, {"context": "x"}, {"task": 7}} {
		res, err := b.Handle(context.Background(), task)
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, "Claude task 'unknown' completed", res.Response())
	}
}

func TestBuiltin_CustomLabel(t *testing.T) {
	b := NewBuiltin("echo", func(o *BuiltinOptions) {
		o.Label = "Echo"
		o.Description = "echoes"
	})

	res, err := b.Handle(context.Background(), core.NewTask("ping", nil))

	require.NoError(t, err)
	assert.Equal(t, "Echo task 'ping' completed", res.Response())
	assert.Equal(t, "echo", res.Agent())
	assert.Equal(t, "echoes", b.Description())
	assert.Equal(t, "Echo", b.Label())
}

func TestBuiltin_Deterministic(t *testing.T) {
	b := NewDefaultBuiltin()
	task := core.NewTask("same", nil)

	first, err := b.Handle(context.Background(), task)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Handle(context.Background(), task)
			assert.NoError(t, err)
			assert.Equal(t, first, res)
		}()
	}
	wg.Wait()
}

func TestBuiltin_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewDefaultBuiltin().Handle(ctx, core.Task{"task": "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}
