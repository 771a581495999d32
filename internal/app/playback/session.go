package playback

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/preview"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/audio"
)

// Resolver decides which clip URL, if any, can be played for a track.
type Resolver interface {
	Resolve(ctx context.Context, t track.Track) preview.Result
}

// Config holds session configuration.
type Config struct {
	DefaultVolume  float64       // Initial volume in [0,1]
	ResolveTimeout time.Duration // Upper bound for one resolution; 0 disables
}

// Session is the single preview playback session.
// At most one audio handle is held at any time, and only the most recently
// selected track may ever reach Playing.
type Session struct {
	mu sync.Mutex

	// Intent
	target  *track.Track
	status  Status
	source  string
	version uint64 // Bumped on every new selection and on teardown

	// Resource
	handle        audio.Handle
	volume        float64
	resolveCancel context.CancelFunc

	resolver Resolver
	device   audio.Device
	config   Config

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewSession creates a new playback session.
func NewSession(resolver Resolver, device audio.Device, config Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		status:   StatusIdle,
		volume:   clampVolume(config.DefaultVolume),
		resolver: resolver,
		device:   device,
		config:   config,
		eventCh:  make(chan Event, 64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Select expresses the intent to hear t.
// Selecting the current target toggles pause/resume without resolving again.
// Selecting another track releases the current handle and starts a new resolution.
func (s *Session) Select(t track.Track) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshotLocked()
	}

	if s.target != nil && s.target.ID == t.ID {
		switch s.status {
		case StatusPlaying:
			s.pauseLocked()
			return s.snapshotLocked()
		case StatusPaused:
			s.resumeLocked()
			return s.snapshotLocked()
		case StatusResolving:
			zlog.Debug().Msgf("playback: already resolving: track=%s", t.ID)
			return s.snapshotLocked()
		}
		// Unavailable falls through and resolves again
	}

	s.cancelResolveLocked()
	s.releaseLocked()
	s.version++

	selected := t
	s.target = &selected
	s.status = StatusResolving
	s.source = ""

	var ctx context.Context
	var cancel context.CancelFunc
	if s.config.ResolveTimeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, s.config.ResolveTimeout)
	} else {
		ctx, cancel = context.WithCancel(s.ctx)
	}
	s.resolveCancel = cancel

	zlog.Debug().Msgf("playback: resolving: track=%s version=%d", t.ID, s.version)
	s.sendEventLocked(EventResolving, t.ID, nil)

	s.wg.Add(1)
	go s.resolve(ctx, cancel, s.version, selected)

	return s.snapshotLocked()
}

// SetVolume sets the session volume, clamped to [0,1], and applies it to the
// active handle. The value persists across track changes. It returns the applied value.
func (s *Session) SetVolume(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = clampVolume(v)
	if s.handle != nil {
		s.handle.SetVolume(s.volume)
	}
	if !s.closed {
		s.sendEventLocked(EventVolumeChanged, s.targetIDLocked(), nil)
	}
	return s.volume
}

// Teardown releases the handle, abandons any in-flight resolution and returns to Idle.
// It is safe to call repeatedly.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

// Close tears the session down, waits for outstanding resolutions and closes the event channel.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	close(s.eventCh)
	s.mu.Unlock()
}

// resolve runs one resolution and commits its result if it is still current.
func (s *Session) resolve(ctx context.Context, cancel context.CancelFunc, version uint64, t track.Track) {
	defer s.wg.Done()
	defer cancel()

	result := s.resolver.Resolve(ctx, t)
	s.commit(version, t, result)
}

// commit applies a resolution result. Results from superseded resolutions are discarded.
func (s *Session) commit(version uint64, t track.Track, result preview.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version != s.version || s.status != StatusResolving {
		zlog.Debug().Msgf("playback: discarding stale resolution: track=%s version=%d current=%d", t.ID, version, s.version)
		return
	}
	s.resolveCancel = nil

	if !result.Found {
		s.status = StatusUnavailable
		zlog.Info().Msgf("playback: no preview available: track=%s", t.ID)
		s.sendEventLocked(EventUnavailable, t.ID, nil)
		return
	}

	handle, err := s.device.Open(result.URL, s.listenerFor(version))
	if err != nil {
		s.failLocked(err)
		return
	}
	handle.SetVolume(s.volume)
	if err := handle.Play(); err != nil {
		if cerr := handle.Close(); cerr != nil {
			zlog.Warn().Msgf("playback: failed to release handle: error=%v", cerr)
		}
		s.failLocked(err)
		return
	}

	s.handle = handle
	s.status = StatusPlaying
	s.source = result.Source
	zlog.Info().Msgf("playback: started: track=%s source=%s", t.ID, result.Source)
	s.sendEventLocked(EventStarted, t.ID, nil)
}

// listenerFor binds handle signals to the selection that opened the handle.
func (s *Session) listenerFor(version uint64) audio.Listener {
	return func(sig audio.Signal, err error) {
		s.onSignal(version, sig, err)
	}
}

// onSignal handles an asynchronous signal. Signals from released handles are ignored.
func (s *Session) onSignal(version uint64, sig audio.Signal, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || version != s.version || s.handle == nil || !s.status.HasResource() {
		zlog.Debug().Msgf("playback: ignoring signal from released handle: signal=%s", sig)
		return
	}

	switch sig {
	case audio.SignalEnded:
		s.onResourceEndedLocked()
	case audio.SignalFailed:
		s.failLocked(err)
	}
}

// onResourceEndedLocked moves Playing to Paused. The handle is kept so the
// next toggle replays the clip.
func (s *Session) onResourceEndedLocked() {
	if s.status != StatusPlaying {
		return
	}
	s.status = StatusPaused
	zlog.Debug().Msgf("playback: clip ended: track=%s", s.targetIDLocked())
	s.sendEventLocked(EventEnded, s.targetIDLocked(), nil)
}

func (s *Session) pauseLocked() {
	if err := s.handle.Pause(); err != nil {
		s.failLocked(err)
		return
	}
	s.status = StatusPaused
	s.sendEventLocked(EventPaused, s.targetIDLocked(), nil)
}

func (s *Session) resumeLocked() {
	if err := s.handle.Play(); err != nil {
		s.failLocked(err)
		return
	}
	s.status = StatusPlaying
	s.sendEventLocked(EventResumed, s.targetIDLocked(), nil)
}

// failLocked handles a resource acquisition failure: the handle is released,
// the target cleared and the session returns to Idle.
func (s *Session) failLocked(err error) {
	trackID := s.targetIDLocked()
	zlog.Warn().Msgf("playback: playback failed: track=%s error=%v", trackID, err)

	s.releaseLocked()
	s.version++
	s.target = nil
	s.status = StatusIdle
	s.source = ""
	s.sendEventLocked(EventPlaybackFailed, trackID, err)
}

func (s *Session) teardownLocked() {
	s.cancelResolveLocked()
	s.releaseLocked()
	s.version++

	wasIdle := s.status == StatusIdle && s.target == nil
	trackID := s.targetIDLocked()
	s.target = nil
	s.status = StatusIdle
	s.source = ""

	if !wasIdle {
		zlog.Debug().Msgf("playback: torn down: track=%s", trackID)
		s.sendEventLocked(EventStopped, trackID, nil)
	}
}

func (s *Session) cancelResolveLocked() {
	if s.resolveCancel != nil {
		s.resolveCancel()
		s.resolveCancel = nil
	}
}

func (s *Session) releaseLocked() {
	if s.handle == nil {
		return
	}
	if err := s.handle.Close(); err != nil {
		zlog.Warn().Msgf("playback: failed to release handle: error=%v", err)
	}
	s.handle = nil
}

func (s *Session) targetIDLocked() string {
	if s.target == nil {
		return ""
	}
	return s.target.ID
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Status:  s.status,
		TrackID: s.targetIDLocked(),
		Volume:  s.volume,
		Source:  s.source,
	}
}

// sendEventLocked sends an event without blocking.
func (s *Session) sendEventLocked(typ EventType, trackID string, err error) {
	if s.closed {
		return
	}
	event := Event{Type: typ, TrackID: trackID, Snapshot: s.snapshotLocked(), Err: err}
	select {
	case s.eventCh <- event:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", typ)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
