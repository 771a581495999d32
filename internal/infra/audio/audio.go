// Package audio provides the audio output used to play preview clips.
package audio

import "github.com/cockroachdb/errors"

// ErrClosed is returned by operations on a released handle.
var ErrClosed = errors.New("audio handle closed")

// Signal is an asynchronous notification emitted by a handle.
type Signal int

const (
	SignalEnded  Signal = iota // Clip reached its natural end
	SignalFailed               // Clip could not be loaded or played
)

// String returns the string representation of the signal.
func (s Signal) String() string {
	switch s {
	case SignalEnded:
		return "ended"
	case SignalFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Listener receives handle signals. err is set only for SignalFailed.
// Listeners are invoked from a goroutine owned by the handle and never while it holds a lock.
type Listener func(sig Signal, err error)

// Handle is a single acquired audio resource bound to one clip URL.
type Handle interface {
	// Play starts or resumes playback. Playing an ended clip restarts it.
	Play() error
	// Pause pauses playback, keeping the position.
	Pause() error
	// SetVolume sets the output volume in [0,1].
	SetVolume(v float64)
	// Close stops playback and releases the handle. Close is idempotent.
	Close() error
}

// Device acquires audio handles.
type Device interface {
	Open(url string, listener Listener) (Handle, error)
}
