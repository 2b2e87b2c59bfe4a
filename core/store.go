package core

// InvocationStore keeps records of past dispatches for inspection.
//
// Implementations must be safe for concurrent use. List returns records most
// recent first; limit <= 0 means all retained records.
type InvocationStore interface {
	Save(inv Invocation) error
	Get(id string) (Invocation, error)
	List(limit int) ([]Invocation, error)
}
