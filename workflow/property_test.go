package workflow

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/agentrouter/core"
	"pgregory.net/rapid"
)

type countingAgent struct{ calls atomic.Int64 }

func (c *countingAgent) Name() string { return "counting" }

func (c *countingAgent) Handle(_ context.Context, task core.Task) (core.Result, error) {
	c.calls.Add(1)
	return core.NewResult("counting", task.Name()), nil
}

func TestProperty_UnknownPhasesNeverInvokeAgent(t *testing.T) {
	e := Default()
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Filter(func(s string) bool { return !Phase(s).IsKnown() }).Draw(t, "phase")
		a := &countingAgent{}

		_, err := e.Execute(context.Background(), a, Phase(name), core.Task{"task": "x"})

		ue, ok := err.(*UnknownStateError)
		if !ok {
			t.Fatalf("expected *UnknownStateError for %q, got %v", name, err)
		}
		if ue.Phase != name {
			t.Fatalf("error names %q, want %q", ue.Phase, name)
		}
		if a.calls.Load() != 0 {
			t.Fatalf("agent invoked for unknown phase %q", name)
		}
	})
}

func TestProperty_KnownPhasesAreIdempotent(t *testing.T) {
	e := Default()
	want := map[Phase]Phase{
		PhaseInit:       PhaseProcessing,
		PhaseProcessing: PhaseCompleted,
		PhaseCompleted:  PhaseDone,
	}
	rapid.Check(t, func(t *rapid.T) {
		phase := rapid.SampledFrom([]Phase{PhaseInit, PhaseProcessing, PhaseCompleted}).Draw(t, "phase")
		task := core.Task{"task": rapid.String().Draw(t, "task")}
		a := &countingAgent{}

		first, err := e.Execute(context.Background(), a, phase, task)
		if err != nil {
			t.Fatalf("first call: %v", err)
		}
		second, err := e.Execute(context.Background(), a, phase, task)
		if err != nil {
			t.Fatalf("second call: %v", err)
		}
		if first != second || first != want[phase] {
			t.Fatalf("phase %q: got %q then %q, want %q", phase, first, second, want[phase])
		}

		var wantCalls int64
		if phase == PhaseInit {
			wantCalls = 2
		}
		if got := a.calls.Load(); got != wantCalls {
			t.Fatalf("phase %q: %d agent calls, want %d", phase, got, wantCalls)
		}
	})
}
