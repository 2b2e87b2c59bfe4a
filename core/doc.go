// Package core provides the foundational domain types and interfaces used by
// agentrouter. It defines the core abstractions for:
//
//   - Agents (pluggable executors invoked through a single Handle method)
//   - Tasks (semi-structured input naming the operation to perform)
//   - Results (semi-structured executor output carrying a status marker)
//   - Invocations (the record of one dispatch, used by history and transports)
//   - Executor errors (typed failures with a code for categorization)
//
// The package intentionally keeps orchestration (workflow, dispatcher) and
// concrete executors out of scope, exposing small interfaces so networked or
// process-isolated executors can be substituted without touching callers.
package core
