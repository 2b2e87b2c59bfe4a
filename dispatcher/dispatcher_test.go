package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/history"
	"github.com/hupe1980/agentrouter/internal/testutil"
	"github.com/hupe1980/agentrouter/workflow"
)

func TestDispatcher_Route(t *testing.T) {
	d := New()
	d.Register(agent.NewDefaultBuiltin())

	inv, err := d.Route(context.Background(), core.NewTask("analyze", nil), "")
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "claude", inv.Agent)
	assert.Equal(t, "init", inv.Phase)
	assert.Equal(t, "processing", inv.NextPhase)
	assert.True(t, inv.Invoked)
	assert.True(t, inv.Succeeded())
	assert.Equal(t, "Claude task 'analyze' completed", inv.Result.Response())
	assert.Equal(t, core.StatusSuccess, inv.Result.Status())

	stored, err := d.History().Get(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, stored.ID)
	assert.Equal(t, "processing", stored.NextPhase)
}

func TestDispatcher_ExecuteBookkeepingPhase(t *testing.T) {
	var calls atomic.Int32
	d := New()
	d.Register(testutil.NewFuncAgent("counter", func(context.Context, core.Task) (core.Result, error) {
		calls.Add(1)
		return core.NewResult("counter", "ok"), nil
	}))

	inv, err := d.Execute(context.Background(), workflow.PhaseProcessing, core.NewTask("x", nil), "")
	require.NoError(t, err)

	assert.Equal(t, "completed", inv.NextPhase)
	assert.False(t, inv.Invoked)
	assert.Nil(t, inv.Result)
	assert.Zero(t, calls.Load())
}

func TestDispatcher_NamedAgent(t *testing.T) {
	d := New()
	d.Register(agent.NewDefaultBuiltin())
	d.Register(agent.NewBuiltin("gpt", func(o *agent.BuiltinOptions) { o.Label = "GPT" }))

	inv, err := d.Route(context.Background(), core.NewTask("t", nil), "gpt")
	require.NoError(t, err)
	assert.Equal(t, "gpt", inv.Agent)
	assert.Equal(t, "GPT task 't' completed", inv.Result.Response())

	def, err := d.DefaultAgent()
	require.NoError(t, err)
	assert.Equal(t, "claude", def.Name())
}

func TestDispatcher_AgentNotFound(t *testing.T) {
	d := New()
	d.Register(agent.NewDefaultBuiltin())

	_, err := d.Route(context.Background(), core.NewTask("t", nil), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Contains(t, err.Error(), "missing")

	list, err := d.History().List(0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatcher_NoAgents(t *testing.T) {
	d := New()

	_, err := d.Route(context.Background(), core.NewTask("t", nil), "")
	assert.ErrorIs(t, err, ErrNoAgents)

	_, err = d.DefaultAgent()
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestDispatcher_DefaultAgentOption(t *testing.T) {
	d := New(func(o *Options) { o.DefaultAgent = "second" })
	d.Register(agent.NewBuiltin("first"))
	d.Register(agent.NewBuiltin("second"))

	def, err := d.DefaultAgent()
	require.NoError(t, err)
	assert.Equal(t, "second", def.Name())

	require.NoError(t, d.SetDefaultAgent("first"))
	def, err = d.DefaultAgent()
	require.NoError(t, err)
	assert.Equal(t, "first", def.Name())

	assert.ErrorIs(t, d.SetDefaultAgent("nope"), ErrAgentNotFound)
}

func TestDispatcher_Agents(t *testing.T) {
	d := New()
	d.Register(agent.NewBuiltin("zeta"))
	d.Register(agent.NewBuiltin("alpha", func(o *agent.BuiltinOptions) { o.Description = "first letter" }))

	infos := d.Agents()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "first letter", infos[0].Description)
	assert.False(t, infos[0].Default)
	assert.Equal(t, "zeta", infos[1].Name)
	assert.True(t, infos[1].Default)

	got, ok := d.GetAgent("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name())

	_, ok = d.GetAgent("beta")
	assert.False(t, ok)
}

func TestDispatcher_ExecutorFailureIsRecorded(t *testing.T) {
	boom := errors.New("backend down")
	d := New()
	d.Register(testutil.FailingAgent("flaky", boom))

	inv, err := d.Route(context.Background(), core.NewTask("t", nil), "")
	require.Error(t, err)

	var phaseErr *workflow.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, workflow.PhaseInit, phaseErr.Phase)
	assert.ErrorIs(t, err, boom)
	assert.True(t, workflow.IsRetryable(err))

	assert.NotEmpty(t, inv.ID)
	assert.Empty(t, inv.NextPhase)
	assert.False(t, inv.Succeeded())

	stored, getErr := d.History().Get(inv.ID)
	require.NoError(t, getErr)
	assert.Contains(t, stored.Error, "backend down")
}

func TestDispatcher_FailedInvocationIsMarkedInvoked(t *testing.T) {
	var calls atomic.Int32

	d := New()
	d.Register(testutil.NewFuncAgent("flaky", func(context.Context, core.Task) (core.Result, error) {
		calls.Add(1)
		return nil, errors.New("backend down")
	}))

	inv, err := d.Route(context.Background(), core.NewTask("t", nil), "")
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, inv.Invoked)
	assert.Nil(t, inv.Result)

	stored, getErr := d.History().Get(inv.ID)
	require.NoError(t, getErr)
	assert.True(t, stored.Invoked)
	assert.Contains(t, stored.Error, "backend down")
}

func TestDispatcher_UnknownPhaseIsNotInvoked(t *testing.T) {
	d := New()
	d.Register(testutil.FailingAgent("flaky", errors.New("backend down")))

	inv, err := d.Execute(context.Background(), workflow.Phase("bogus"), core.NewTask("t", nil), "")
	require.Error(t, err)

	stored, getErr := d.History().Get(inv.ID)
	require.NoError(t, getErr)
	assert.False(t, stored.Invoked)
}

func TestDispatcher_EngineErrorsPassThrough(t *testing.T) {
	d := New()
	d.Register(agent.NewDefaultBuiltin())

	_, err := d.Execute(context.Background(), workflow.Phase("bogus"), core.NewTask("t", nil), "")
	var unknown *workflow.UnknownStateError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus", unknown.Phase)

	_, err = d.Execute(context.Background(), workflow.PhaseDone, core.NewTask("t", nil), "")
	var terminal *workflow.TerminalStateError
	require.ErrorAs(t, err, &terminal)
}

func TestDispatcher_InvocationTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	d := New(func(o *Options) { o.Config.InvocationTimeout = 20 * time.Millisecond })
	d.Register(testutil.BlockingAgent("stuck", release))

	start := time.Now()
	_, err := d.Route(context.Background(), core.NewTask("t", nil), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDispatcher_ConcurrencySlots(t *testing.T) {
	var (
		running atomic.Int32
		peak    atomic.Int32
	)

	d := New(func(o *Options) { o.Config.MaxConcurrentInvocations = 2 })
	d.Register(testutil.NewFuncAgent("slow", func(context.Context, core.Task) (core.Result, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return core.NewResult("slow", "ok"), nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Route(context.Background(), core.NewTask("t", nil), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatcher_SlotWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})

	d := New(func(o *Options) { o.Config.MaxConcurrentInvocations = 1 })
	d.Register(testutil.BlockingAgent("holder", release))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Route(context.Background(), core.NewTask("first", nil), "")
	}()

	require.Eventually(t, func() bool { return len(d.slots) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	inv, err := d.Route(ctx, core.NewTask("second", nil), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, inv.Invoked)

	close(release)
	<-done
}

func TestDispatcher_RouteBatch(t *testing.T) {
	d := New(func(o *Options) { o.Config.BatchConcurrency = 3 })
	d.Register(testutil.NewFuncAgent("picky", func(_ context.Context, task core.Task) (core.Result, error) {
		if task.Name() == "bad" {
			return nil, errors.New("rejected")
		}
		return core.NewResult("picky", "done "+task.Name()), nil
	}))

	tasks := make([]core.Task, 0, 10)
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("t%d", i)
		if i == 4 {
			name = "bad"
		}
		tasks = append(tasks, core.NewTask(name, nil))
	}

	results := d.RouteBatch(context.Background(), tasks, "")
	require.Len(t, results, 10)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		if i == 4 {
			assert.Error(t, r.Err)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("done t%d", i), r.Invocation.Result.Response())
	}

	list, err := d.History().List(0)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func TestDispatcher_RouteBatchEmpty(t *testing.T) {
	d := New()
	assert.Empty(t, d.RouteBatch(context.Background(), nil, ""))
}

func TestDispatcher_CustomHistory(t *testing.T) {
	store := history.NewInMemoryStore(2)
	d := New(func(o *Options) { o.History = store })
	d.Register(agent.NewDefaultBuiltin())

	for i := 0; i < 3; i++ {
		_, err := d.Route(context.Background(), core.NewTask(fmt.Sprintf("t%d", i), nil), "")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.Len())
}

func TestDispatcher_TaskIsNotMutated(t *testing.T) {
	d := New()
	d.Register(testutil.NewFuncAgent("mutator", func(_ context.Context, task core.Task) (core.Result, error) {
		task["injected"] = true
		return core.NewResult("mutator", "ok"), nil
	}))

	task := core.NewTask("t", nil)
	inv, err := d.Route(context.Background(), task, "")
	require.NoError(t, err)

	assert.NotContains(t, task, "injected")
	assert.NotContains(t, inv.Task, "injected")
}
