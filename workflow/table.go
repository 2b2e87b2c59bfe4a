package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// Transition describes what happens when the engine is asked to leave a phase.
type Transition struct {
	// Next is the phase returned on success.
	Next Phase `yaml:"next" json:"next"`
	// InvokeAgent marks phases that perform real work through the bound agent.
	// Phases without it are pure bookkeeping transitions.
	InvokeAgent bool `yaml:"invoke_agent" json:"invoke_agent"`
}

// Table maps a phase to its outgoing transition. Phases that only appear as a
// Next target are terminal.
type Table map[Phase]Transition

// DefaultTable returns the init -> processing -> completed -> done pipeline
// where only init invokes the agent.
func DefaultTable() Table {
	return Table{
		PhaseInit:       {Next: PhaseProcessing, InvokeAgent: true},
		PhaseProcessing: {Next: PhaseCompleted},
		PhaseCompleted:  {Next: PhaseDone},
	}
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// IsTerminal reports whether p is reachable in the table but has no outgoing
// transition.
func (t Table) IsTerminal(p Phase) bool {
	if _, ok := t[p]; ok {
		return false
	}
	for _, tr := range t {
		if tr.Next == p {
			return true
		}
	}
	return false
}

// Phases returns every phase named by the table, sources and targets, sorted
// by name.
func (t Table) Phases() []Phase {
	seen := make(map[Phase]struct{}, len(t)+1)
	for from, tr := range t {
		seen[from] = struct{}{}
		seen[tr.Next] = struct{}{}
	}
	out := make([]Phase, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePhase converts a raw phase name into a phase named by the table,
// sources and terminal targets alike. Surrounding whitespace is ignored.
// Other names yield *UnknownStateError carrying the trimmed name.
func (t Table) ParsePhase(s string) (Phase, error) {
	p := Phase(strings.TrimSpace(s))
	if _, ok := t[p]; ok {
		return p, nil
	}
	if p != "" && t.IsTerminal(p) {
		return p, nil
	}
	return p, &UnknownStateError{Phase: string(p)}
}

// Validate checks that phase names are non-empty, no phase transitions to
// itself and following transitions from any phase reaches a terminal phase.
func (t Table) Validate() error {
	for from, tr := range t {
		if from == "" {
			return &InvalidTableError{Phase: from, Reason: "empty phase name"}
		}
		if tr.Next == "" {
			return &InvalidTableError{Phase: from, Reason: "empty next phase"}
		}
		if tr.Next == from {
			return &InvalidTableError{Phase: from, Reason: "phase is re-entrant"}
		}
	}
	for _, start := range t.Phases() {
		visited := map[Phase]bool{start: true}
		cur := start
		for {
			tr, ok := t[cur]
			if !ok {
				break
			}
			if visited[tr.Next] {
				return &InvalidTableError{Phase: start, Reason: fmt.Sprintf("cycle through %q", tr.Next)}
			}
			visited[tr.Next] = true
			cur = tr.Next
		}
	}
	return nil
}
