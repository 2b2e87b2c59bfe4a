package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Validate(t *testing.T) {
	require.NoError(t, DefaultTable().Validate())
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		ok    bool
	}{
		{"empty", Table{}, true},
		{"linear", Table{"a": {Next: "b"}, "b": {Next: "c"}}, true},
		{"self loop", Table{"a": {Next: "a"}}, false},
		{"cycle", Table{"a": {Next: "b"}, "b": {Next: "c"}, "c": {Next: "a"}}, false},
		{"empty source", Table{"": {Next: "b"}}, false},
		{"empty target", Table{"a": {Next: ""}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				var ie *InvalidTableError
				assert.ErrorAs(t, err, &ie)
			}
		})
	}
}

func TestTable_IsTerminal(t *testing.T) {
	table := DefaultTable()
	assert.True(t, table.IsTerminal(PhaseDone))
	assert.False(t, table.IsTerminal(PhaseInit))
	assert.False(t, table.IsTerminal("bogus"))
}

func TestTable_Phases(t *testing.T) {
	assert.Equal(t, []Phase{PhaseCompleted, PhaseDone, PhaseInit, PhaseProcessing}, DefaultTable().Phases())
}

func TestParsePhase(t *testing.T) {
	for _, p := range Phases() {
		got, err := ParsePhase(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePhase(" init ")
	require.NoError(t, err)
	assert.Equal(t, PhaseInit, got)

	_, err = ParsePhase("INIT")
	var ue *UnknownStateError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "INIT", ue.Phase)

	_, err = ParsePhase("  review\t")
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "review", ue.Phase)
}
