// Package agent contains the executors that fulfil core.Agent.
//
//   - Builtin: a deterministic, I/O free executor that annotates the task
//   - ModelAgent: renders a prompt from the task and asks a model.Model
//   - SandboxAgent: hands the task to a process-isolated sandbox over REST
//   - MCPAgent: calls a tool on an MCP server with the task as arguments
//
// Composite executors combine other agents:
//
//   - SequentialAgent: runs children in order, feeding each the previous result
//   - ParallelAgent: fans the task out and merges responses by child name
//   - LoopAgent: repeats a child until a predicate matches or iterations run out
//
// All executors embed BaseAgent for identity, are safe for concurrent use and
// report backend failures as *core.ExecutorError so transports can tell them
// apart from workflow errors.
package agent
