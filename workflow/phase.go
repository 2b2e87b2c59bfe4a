package workflow

// Phase names a point in a workflow's progression.
type Phase string

const (
	// PhaseInit is the caller-supplied starting phase; the agent runs here.
	PhaseInit Phase = "init"
	// PhaseProcessing follows a successful agent invocation.
	PhaseProcessing Phase = "processing"
	// PhaseCompleted marks the work as finished.
	PhaseCompleted Phase = "completed"
	// PhaseDone is the terminal phase.
	PhaseDone Phase = "done"
)

// String implements fmt.Stringer.
func (p Phase) String() string { return string(p) }

// Phases returns the phases known to DefaultTable in progression order,
// including the terminal phase.
func Phases() []Phase {
	return []Phase{PhaseInit, PhaseProcessing, PhaseCompleted, PhaseDone}
}

// IsKnown reports whether p belongs to the default phase set.
func (p Phase) IsKnown() bool {
	switch p {
	case PhaseInit, PhaseProcessing, PhaseCompleted, PhaseDone:
		return true
	}
	return false
}

// IsTerminal reports whether p is the terminal phase.
func (p Phase) IsTerminal() bool { return p == PhaseDone }

// ParsePhase converts a raw phase name into a Phase of DefaultTable.
// Surrounding whitespace is ignored and matching is exact otherwise. Other
// names yield *UnknownStateError carrying the trimmed name.
func ParsePhase(s string) (Phase, error) {
	return DefaultTable().ParsePhase(s)
}
