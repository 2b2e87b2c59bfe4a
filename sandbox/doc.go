// Package sandbox is a client for a process-isolated task runner exposing a
// small REST API:
//
//	POST {base}/tasks              {"id": "<uuid>", "task": {...}}
//	GET  {base}/tasks/{id}/status  {"status": "running", "error": ""}
//	GET  {base}/tasks/{id}/result  {...}
//
// The agent package wraps Client as an executor so tasks can be handed to the
// sandbox without changes to the workflow engine or dispatcher.
package sandbox
