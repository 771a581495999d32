package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Transition(t *testing.T) {
	m := New("session-1")
	assert.Equal(t, "session-1", m.GetSessionID())
	assert.Equal(t, PhaseActive, m.GetPhase())
	assert.True(t, m.IsActive())

	assert.False(t, m.Transition(PhaseActive), "same phase is not a change")
	assert.True(t, m.Transition(PhaseLoggedOut))
	assert.False(t, m.IsActive())
	assert.False(t, m.Transition(PhaseLoggedOut))

	assert.True(t, m.Transition(PhaseClosed))
	assert.False(t, m.Transition(PhaseActive), "phases never move backwards")
	assert.Equal(t, PhaseClosed, m.GetPhase())

	started, changed := m.GetTimes()
	assert.False(t, changed.Before(started))
}

func TestManager_PlaylistID(t *testing.T) {
	m := New("s")
	assert.Empty(t, m.GetPlaylistID())
	assert.True(t, m.SetPlaylistID("pl1"))
	assert.Equal(t, "pl1", m.GetPlaylistID())

	m.Transition(PhaseLoggedOut)
	assert.Empty(t, m.GetPlaylistID(), "logging out clears the open playlist")
	assert.False(t, m.SetPlaylistID("pl2"))
	assert.Empty(t, m.GetPlaylistID())
	assert.True(t, m.SetPlaylistID(""))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "logged_out", PhaseLoggedOut.String())
	assert.Equal(t, "closed", PhaseClosed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
