// Package workflow implements the phase-gated task pipeline that sequences a
// task through named phases.
//
// The Engine is stateless: the caller passes the current phase and receives
// the next one. Which phases exist, what follows each of them and where the
// executor is invoked is data held in a Table, so further phases can be added
// without touching unrelated ones.
//
// With DefaultTable:
//
//	init        invoke agent.Handle(task)   -> processing
//	processing  bookkeeping                 -> completed
//	completed   bookkeeping                 -> done
//	done        terminal
//
// Any other phase name fails with *UnknownStateError and the agent is never
// invoked. Executor failures are returned wrapped in *PhaseError without
// advancing, so the caller keeps its current phase and may try again.
package workflow
