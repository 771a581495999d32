// Package session provides the session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/app/analysis"
	"github.com/osa030/moodbox/internal/app/library"
	"github.com/osa030/moodbox/internal/app/notification"
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/session/state"
	"github.com/osa030/moodbox/internal/app/sorter"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/domain/vibe"
	"github.com/osa030/moodbox/internal/infra/audio"
	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/spotify"
)

// ErrSessionClosed is returned by operations after Close.
var ErrSessionClosed = errors.New("session is closed")

// Credential signals credential invalidation.
type Credential interface {
	Invalid() <-chan struct{}
}

// Deps holds the collaborators of a session.
type Deps struct {
	Catalog    library.Catalog
	Resolver   playback.Resolver
	Device     audio.Device
	Summarizer analysis.Summarizer // nil disables vibe analysis
	Tagger     analysis.Tagger     // nil disables tag enrichment
	Credential Credential          // nil disables the logged-out transition
}

// Manager wires the playback session, the library view, vibe analysis and
// notifications into one user session.
type Manager struct {
	config *config.Config

	// Components
	stateMgr     *state.Manager
	playback     *playback.Session
	library      *library.Library
	analyzer     *analysis.Analyzer
	notification *notification.Manager
	credential   Credential

	// Channels
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Catalog == nil || deps.Resolver == nil || deps.Device == nil {
		return nil, errors.New("catalog, resolver and device are required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	pb := playback.NewSession(deps.Resolver, deps.Device, playback.Config{
		DefaultVolume:  cfg.Playback.DefaultVolume,
		ResolveTimeout: cfg.ResolveTimeout(),
	})

	m := &Manager{
		config:       cfg,
		stateMgr:     state.New(uuid.New().String()),
		playback:     pb,
		library:      library.New(deps.Catalog, pb, isUnauthorized),
		analyzer:     analysis.NewAnalyzer(deps.Summarizer, deps.Tagger, analysis.Config{MaxTracks: cfg.Vibe.MaxTracks, TagCount: cfg.Vibe.LastFmTagCount}),
		notification: notification.NewManager(),
		credential:   deps.Credential,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	return m, nil
}

func isUnauthorized(err error) bool {
	return errors.Is(err, spotify.ErrCredentialInvalid)
}

// Start starts the event loops.
func (m *Manager) Start() {
	zlog.Info().Msgf("session: started: session_id=%s", m.stateMgr.GetSessionID())

	m.wg.Add(1)
	go m.playbackLoop()

	if m.credential != nil {
		m.wg.Add(1)
		go m.credentialLoop()
	}
}

// Done returns a channel closed when the session is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close tears down playback, stops the loops and drops subscribers.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.stateMgr.Transition(state.PhaseClosed)
		m.library.Close()
		m.cancel()
		m.playback.Close()
		m.wg.Wait()
		m.notification.Close()
		close(m.done)
		startedAt, _ := m.stateMgr.GetTimes()
		zlog.Info().Msgf("session: closed: session_id=%s uptime=%s", m.stateMgr.GetSessionID(), time.Since(startedAt).Round(time.Second))
	})
}

// Playlists lists the user's playlists.
func (m *Manager) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	if err := m.checkActive(); err != nil {
		return nil, err
	}
	playlists, err := m.library.Playlists(ctx)
	if err != nil {
		return nil, m.onLibraryError(err)
	}
	return playlists, nil
}

// OpenPlaylist opens a playlist view sorted by sortName. The previous view is
// unmounted, which tears down playback.
func (m *Manager) OpenPlaylist(ctx context.Context, playlistID, sortName string) (*library.View, error) {
	if err := m.checkActive(); err != nil {
		return nil, err
	}
	key, err := sorter.ParseKey(sortName)
	if err != nil {
		return nil, err
	}

	view, err := m.library.Open(ctx, playlistID, key)
	if err != nil {
		m.stateMgr.SetPlaylistID("")
		if aerr := m.checkActive(); aerr != nil {
			return nil, aerr
		}
		return nil, m.onLibraryError(err)
	}

	// The session may have logged out while the playlist was fetched.
	if !m.stateMgr.SetPlaylistID(view.Playlist.ID) {
		m.library.Close()
		zlog.Debug().Msgf("session: dropping view opened after logout: playlist=%s", view.Playlist.ID)
		return nil, m.checkActive()
	}
	m.notification.Broadcast(&moodboxv1.Notification{
		Type:       moodboxv1.NotificationTypeViewChanged,
		State:      PlaybackState(m.playback.Snapshot()),
		PlaylistId: view.Playlist.ID,
	})
	return view, nil
}

// CloseView unmounts the open view.
func (m *Manager) CloseView() {
	m.library.Close()
	m.analyzer.Forget()
	m.stateMgr.SetPlaylistID("")
	m.notification.Broadcast(&moodboxv1.Notification{
		Type:  moodboxv1.NotificationTypeViewChanged,
		State: PlaybackState(m.playback.Snapshot()),
	})
}

// CurrentView returns the open view.
func (m *Manager) CurrentView() (*library.View, error) {
	return m.library.Current()
}

// AnalyzeVibe summarizes the open view's vibe, at most once per view.
func (m *Manager) AnalyzeVibe(ctx context.Context) (vibe.Summary, error) {
	view, err := m.library.Current()
	if err != nil {
		return vibe.Summary{}, err
	}
	return m.analyzer.Analyze(ctx, view.ID, view.Playlist.Tracks)
}

// Select selects a track of the open view for preview playback.
// It fails once the session has logged out or closed.
func (m *Manager) Select(trackID string) (playback.Snapshot, error) {
	if err := m.checkActive(); err != nil {
		return m.playback.Snapshot(), err
	}
	var snap playback.Snapshot
	err := m.library.WithTrack(trackID, func(t track.Track) {
		snap = m.playback.Select(t)
	})
	if err != nil {
		return m.playback.Snapshot(), err
	}
	return snap, nil
}

// SetVolume sets the playback volume and returns the applied value.
func (m *Manager) SetVolume(v float64) float64 {
	return m.playback.SetVolume(v)
}

// Teardown stops preview playback.
func (m *Manager) Teardown() {
	m.playback.Teardown()
}

// Status is the session status.
type Status struct {
	Phase      state.Phase
	Playback   playback.Snapshot
	PlaylistID string
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	return Status{
		Phase:      m.stateMgr.GetPhase(),
		Playback:   m.playback.Snapshot(),
		PlaylistID: m.stateMgr.GetPlaylistID(),
	}
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

func (m *Manager) checkActive() error {
	if m.stateMgr.IsActive() {
		return nil
	}
	switch m.stateMgr.GetPhase() {
	case state.PhaseLoggedOut:
		return errors.Mark(errors.New("session expired"), library.ErrUnauthorized)
	case state.PhaseClosed:
		return ErrSessionClosed
	}
	return nil
}

// onLibraryError moves to the logged-out state on credential failures.
func (m *Manager) onLibraryError(err error) error {
	if errors.Is(err, library.ErrUnauthorized) {
		m.logout()
	}
	return err
}

// playbackLoop forwards playback events to subscribers.
func (m *Manager) playbackLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.playback.Events():
			if !ok {
				return
			}
			m.handlePlaybackEvent(event)
		}
	}
}

// credentialLoop logs the session out once the credential is invalidated.
func (m *Manager) credentialLoop() {
	defer m.wg.Done()
	select {
	case <-m.ctx.Done():
	case <-m.credential.Invalid():
		m.logout()
	}
}

func (m *Manager) logout() {
	if !m.stateMgr.Transition(state.PhaseLoggedOut) {
		return
	}
	zlog.Warn().Msgf("session: credential invalid, logged out: session_id=%s", m.stateMgr.GetSessionID())

	m.library.Close()
	m.analyzer.Forget()
	m.stateMgr.SetPlaylistID("")
	m.notification.Broadcast(&moodboxv1.Notification{
		Type:    moodboxv1.NotificationTypeSessionExpired,
		State:   PlaybackState(m.playback.Snapshot()),
		Message: m.config.GetMessage("session_expired"),
	})
}

func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("session: playback event: type=%s track=%s", event.Type, event.TrackID)

	n := &moodboxv1.Notification{
		Type:    notificationType(event.Type),
		State:   PlaybackState(event.Snapshot),
		TrackId: event.TrackID,
	}
	switch event.Type {
	case playback.EventUnavailable:
		n.Message = m.config.GetMessage("no_preview")
	case playback.EventPlaybackFailed:
		n.Message = m.config.GetMessage("playback_failed")
	}
	m.notification.Broadcast(n)
}

func notificationType(t playback.EventType) moodboxv1.NotificationType {
	switch t {
	case playback.EventResolving:
		return moodboxv1.NotificationTypeResolving
	case playback.EventStarted:
		return moodboxv1.NotificationTypeStarted
	case playback.EventPaused:
		return moodboxv1.NotificationTypePaused
	case playback.EventResumed:
		return moodboxv1.NotificationTypeResumed
	case playback.EventEnded:
		return moodboxv1.NotificationTypeEnded
	case playback.EventUnavailable:
		return moodboxv1.NotificationTypeUnavailable
	case playback.EventPlaybackFailed:
		return moodboxv1.NotificationTypePlaybackFailed
	case playback.EventVolumeChanged:
		return moodboxv1.NotificationTypeVolumeChanged
	default:
		return moodboxv1.NotificationTypeStopped
	}
}

// PlaybackState converts a playback snapshot to its API message.
func PlaybackState(snap playback.Snapshot) *moodboxv1.PlaybackState {
	return &moodboxv1.PlaybackState{
		Status:  snap.Status.String(),
		TrackId: snap.TrackID,
		Volume:  snap.Volume,
		Source:  snap.Source,
	}
}
