package playback

// EventType represents a playback event type.
type EventType int

const (
	EventResolving      EventType = iota // Resolution started for a new target
	EventStarted                         // Clip acquired and playing
	EventPaused                          // Playback paused by the user
	EventResumed                         // Playback resumed by the user
	EventEnded                           // Clip reached its end
	EventUnavailable                     // No preview found for the target
	EventPlaybackFailed                  // Audio resource could not be acquired or failed
	EventVolumeChanged                   // Volume changed
	EventStopped                         // Session torn down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventResolving:
		return "resolving"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventEnded:
		return "ended"
	case EventUnavailable:
		return "unavailable"
	case EventPlaybackFailed:
		return "playback_failed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	TrackID  string   // Track the event refers to (empty for some events)
	Snapshot Snapshot // Session state after the event
	Err      error    // Set for EventPlaybackFailed
}
