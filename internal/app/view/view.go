// Package view maps the playback session state to per-row render flags.
package view

import (
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/domain/track"
)

// RowState holds the flags used to render one track row.
type RowState struct {
	IsCurrent     bool // Row is the session target
	IsPlaying     bool // Row is audibly playing
	IsLoading     bool // Row's preview is being resolved
	IsUnavailable bool // Row has no preview
}

// Row returns the state of the row for trackID.
func Row(snap playback.Snapshot, trackID string) RowState {
	if snap.Status == playback.StatusIdle || !snap.IsTarget(trackID) {
		return RowState{}
	}
	return RowState{
		IsCurrent:     true,
		IsPlaying:     snap.Status == playback.StatusPlaying,
		IsLoading:     snap.Status == playback.StatusResolving,
		IsUnavailable: snap.Status == playback.StatusUnavailable,
	}
}

// Rows returns the states of every row, parallel to tracks.
func Rows(snap playback.Snapshot, tracks []track.Track) []RowState {
	rows := make([]RowState, len(tracks))
	for i := range tracks {
		rows[i] = Row(snap, tracks[i].ID)
	}
	return rows
}
