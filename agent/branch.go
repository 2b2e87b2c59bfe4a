package agent

import "github.com/hupe1980/agentrouter/core"

// buildBranchPath composes the hierarchical identity of a child step inside a
// composite executor. If parent is empty it returns child; otherwise it
// returns parent + "." + child. An empty child returns parent.
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// stepRecord is the per-child entry composite executors attach to their result.
func stepRecord(parent string, child string, res core.Result) map[string]any {
	return map[string]any{
		"branch":         buildBranchPath(parent, child),
		core.AgentKey:    child,
		core.ResponseKey: res.Response(),
	}
}

// invalidResult reports a child that returned neither a result nor an error.
func invalidResult(child string) error {
	return &core.ExecutorError{
		Agent:   child,
		Code:    core.CodeInvalidResult,
		Message: "agent returned no result",
	}
}
