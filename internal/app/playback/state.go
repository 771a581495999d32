// Package playback provides the preview playback session.
package playback

// Status represents the playback session status.
type Status int

const (
	StatusIdle        Status = iota // Nothing selected, no audio resource
	StatusResolving                 // Looking up a preview for the target track
	StatusPlaying                   // Target track is playing
	StatusPaused                    // Target track is paused or ended
	StatusUnavailable               // No preview could be found for the target track
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusResolving:
		return "resolving"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HasResource reports whether an audio resource may be held in this status.
func (s Status) HasResource() bool {
	return s == StatusPlaying || s == StatusPaused
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Status  Status
	TrackID string // Target track; empty when idle
	Volume  float64
	Source  string // Where the playing clip came from ("catalog" or a searcher name)
}

// IsTarget reports whether trackID is the session's current target.
func (s Snapshot) IsTarget(trackID string) bool {
	return s.TrackID != "" && s.TrackID == trackID
}
