// Package dispatcher routes tasks to registered agents through a workflow
// engine.
//
// A Dispatcher owns the agent registry and the operational concerns around a
// single workflow step: resolving the target agent, bounding concurrency,
// applying a per-invocation timeout, running lifecycle callbacks and
// recording every attempt in a core.InvocationStore. The workflow semantics
// themselves (which phase follows which, whether the agent runs) belong to
// workflow.Engine.
//
// Basic usage:
//
//	d := dispatcher.New()
//	d.Register(agent.NewDefaultBuiltin())
//
//	inv, err := d.Route(ctx, core.NewTask("summarize", nil), "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(inv.Result.Response())
package dispatcher
