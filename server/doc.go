// Package server exposes a Dispatcher over HTTP using Fiber.
//
// Routes:
//
//	GET  /                          welcome text
//	GET  /health                    liveness and version
//	POST /v1/messages/count_tokens  approximate token count of a text
//	POST /v1/mcp/route              route one task to an agent
//	POST /v1/mcp/route/batch        route several tasks concurrently
//	POST /v1/workflow/execute       run one workflow step from a given phase
//	GET  /v1/agents                 registered agents
//	GET  /v1/invocations            recent invocation records
//	GET  /v1/invocations/:id        a single invocation record
package server
