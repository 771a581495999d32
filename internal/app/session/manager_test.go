package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/app/analysis"
	"github.com/osa030/moodbox/internal/app/library"
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/preview"
	"github.com/osa030/moodbox/internal/app/session/state"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/domain/vibe"
	"github.com/osa030/moodbox/internal/infra/audio"
	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/spotify"
)

type fakeCatalog struct {
	mu         sync.Mutex
	playlists  map[string]*playlist.Playlist
	err        error
	onFeatures func()
}

func (c *fakeCatalog) GetPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]playlist.Playlist, 0, len(c.playlists))
	for _, p := range c.playlists {
		out = append(out, *p)
	}
	return out, nil
}

func (c *fakeCatalog) GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.playlists[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (c *fakeCatalog) GetAudioFeatures(ctx context.Context, ids []string) ([]*track.Features, error) {
	if c.onFeatures != nil {
		c.onFeatures()
	}
	out := make([]*track.Features, len(ids))
	for i := range ids {
		out[i] = &track.Features{Energy: float64(i) / 10}
	}
	return out, nil
}

func (c *fakeCatalog) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

type staticResolver struct{}

func (staticResolver) Resolve(ctx context.Context, t track.Track) preview.Result {
	if t.PreviewURL == "" {
		return preview.NotFound()
	}
	return preview.Result{URL: t.PreviewURL, Found: true, Source: "catalog"}
}

type nopHandle struct{}

func (nopHandle) Play() error         { return nil }
func (nopHandle) Pause() error        { return nil }
func (nopHandle) SetVolume(v float64) {}
func (nopHandle) Close() error        { return nil }

type nopDevice struct{}

func (nopDevice) Open(url string, listener audio.Listener) (audio.Handle, error) {
	return nopHandle{}, nil
}

type fakeSummarizer struct {
	calls int
}

func (s *fakeSummarizer) Summarize(ctx context.Context, descriptions []string) (vibe.Summary, error) {
	s.calls++
	return vibe.Summary{Vibe: "calm", Tags: []string{"ambient"}}, nil
}

type fakeCredential struct {
	ch chan struct{}
}

func (c *fakeCredential) Invalid() <-chan struct{} { return c.ch }

type recordingStream struct {
	mu       sync.Mutex
	received []*moodboxv1.Notification
}

func (s *recordingStream) Send(n *moodboxv1.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *recordingStream) types() []moodboxv1.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]moodboxv1.NotificationType, len(s.received))
	for i, n := range s.received {
		out[i] = n.Type
	}
	return out
}

func (s *recordingStream) waitFor(t *testing.T, typ moodboxv1.NotificationType) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, got := range s.types() {
			if got == typ {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "notification %s not received", typ)
}

func testConfig() *config.Config {
	return &config.Config{
		Playback: config.PlaybackConfig{DefaultVolume: 0.5},
		Vibe:     config.VibeConfig{MaxTracks: 30, LastFmTagCount: 3, SummaryTagCount: 5},
		Messages: config.MessagesConfig{
			NoPreview:      "no preview",
			PlaybackFailed: "failed",
			SessionExpired: "expired",
		},
	}
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{playlists: map[string]*playlist.Playlist{
		"p1": {ID: "p1", Name: "Morning", Tracks: []track.Track{
			{ID: "t1", Name: "One", Artists: []string{"A"}, PreviewURL: "http://clip/1"},
			{ID: "t2", Name: "Two", Artists: []string{"B"}},
		}},
	}}
}

func newTestManager(t *testing.T, deps Deps) *Manager {
	t.Helper()
	if deps.Catalog == nil {
		deps.Catalog = testCatalog()
	}
	deps.Resolver = staticResolver{}
	deps.Device = nopDevice{}
	m, err := NewManager(testConfig(), deps)
	require.NoError(t, err)
	m.Start()
	t.Cleanup(m.Close)
	return m
}

func TestNewManager_RequiresDeps(t *testing.T) {
	_, err := NewManager(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestManager_OpenAndSelect(t *testing.T) {
	m := newTestManager(t, Deps{})
	stream := &recordingStream{}
	m.GetNotificationManager().Subscribe(stream)

	view, err := m.OpenPlaylist(context.Background(), "p1", "energy")
	require.NoError(t, err)
	assert.Equal(t, "p1", view.Playlist.ID)
	assert.Equal(t, "t2", view.Sorted[0].ID)
	assert.Equal(t, "p1", m.GetStatus().PlaylistID)
	stream.waitFor(t, moodboxv1.NotificationTypeViewChanged)

	_, err = m.Select("t1")
	require.NoError(t, err)
	stream.waitFor(t, moodboxv1.NotificationTypeStarted)
	assert.Equal(t, playback.StatusPlaying, m.GetStatus().Playback.Status)

	_, err = m.Select("t2")
	require.NoError(t, err)
	stream.waitFor(t, moodboxv1.NotificationTypeUnavailable)
}

func TestManager_SelectOutsideView(t *testing.T) {
	m := newTestManager(t, Deps{})

	_, err := m.Select("t1")
	assert.ErrorIs(t, err, library.ErrNoView)

	_, err = m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)
	_, err = m.Select("missing")
	assert.ErrorIs(t, err, library.ErrTrackNotFound)
}

func TestManager_OpenPlaylistBadSort(t *testing.T) {
	m := newTestManager(t, Deps{})
	_, err := m.OpenPlaylist(context.Background(), "p1", "loudness")
	assert.Error(t, err)
}

func TestManager_CloseViewTearsDownPlayback(t *testing.T) {
	m := newTestManager(t, Deps{})
	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)
	_, err = m.Select("t1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return m.GetStatus().Playback.Status == playback.StatusPlaying
	}, 2*time.Second, 5*time.Millisecond)

	m.CloseView()

	status := m.GetStatus()
	assert.Equal(t, playback.StatusIdle, status.Playback.Status)
	assert.Empty(t, status.PlaylistID)
	_, err = m.CurrentView()
	assert.ErrorIs(t, err, library.ErrNoView)
}

func TestManager_AnalyzeVibe(t *testing.T) {
	summarizer := &fakeSummarizer{}
	m := newTestManager(t, Deps{Summarizer: summarizer})

	_, err := m.AnalyzeVibe(context.Background())
	assert.ErrorIs(t, err, library.ErrNoView)

	_, err = m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)

	summary, err := m.AnalyzeVibe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "calm", summary.Vibe)

	_, err = m.AnalyzeVibe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summarizer.calls)
}

func TestManager_AnalyzeVibeDisabled(t *testing.T) {
	m := newTestManager(t, Deps{})
	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)

	_, err = m.AnalyzeVibe(context.Background())
	assert.ErrorIs(t, err, analysis.ErrDisabled)
}

func TestManager_CredentialInvalidation(t *testing.T) {
	cred := &fakeCredential{ch: make(chan struct{})}
	m := newTestManager(t, Deps{Credential: cred})
	stream := &recordingStream{}
	m.GetNotificationManager().Subscribe(stream)

	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)

	close(cred.ch)
	stream.waitFor(t, moodboxv1.NotificationTypeSessionExpired)

	assert.Equal(t, state.PhaseLoggedOut, m.GetStatus().Phase)
	_, err = m.CurrentView()
	assert.ErrorIs(t, err, library.ErrNoView)

	_, err = m.Playlists(context.Background())
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)
	_, err = m.OpenPlaylist(context.Background(), "p1", "")
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)
}

func TestManager_CredentialInvalidatedDuringOpen(t *testing.T) {
	cred := &fakeCredential{ch: make(chan struct{})}
	catalog := testCatalog()
	m := newTestManager(t, Deps{Catalog: catalog, Credential: cred})
	catalog.onFeatures = func() {
		close(cred.ch)
		require.Eventually(t, func() bool {
			return m.GetStatus().Phase == state.PhaseLoggedOut
		}, 2*time.Second, 5*time.Millisecond)
	}

	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)

	status := m.GetStatus()
	assert.Equal(t, state.PhaseLoggedOut, status.Phase)
	assert.Empty(t, status.PlaylistID)
	_, err = m.CurrentView()
	assert.ErrorIs(t, err, library.ErrNoView)

	_, err = m.Select("t1")
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)
	assert.Equal(t, playback.StatusIdle, m.GetStatus().Playback.Status)
}

func TestManager_SelectAfterLogout(t *testing.T) {
	cred := &fakeCredential{ch: make(chan struct{})}
	m := newTestManager(t, Deps{Credential: cred})
	stream := &recordingStream{}
	m.GetNotificationManager().Subscribe(stream)

	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	require.NoError(t, err)
	_, err = m.Select("t1")
	require.NoError(t, err)
	stream.waitFor(t, moodboxv1.NotificationTypeStarted)

	close(cred.ch)
	stream.waitFor(t, moodboxv1.NotificationTypeSessionExpired)
	assert.Equal(t, playback.StatusIdle, m.GetStatus().Playback.Status)

	snap, err := m.Select("t1")
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)
	assert.Equal(t, playback.StatusIdle, snap.Status)
	assert.Equal(t, playback.StatusIdle, m.GetStatus().Playback.Status)
}

func TestManager_UnauthorizedCatalogError(t *testing.T) {
	catalog := testCatalog()
	m := newTestManager(t, Deps{Catalog: catalog})

	catalog.setErr(errors.Mark(errors.New("refresh rejected"), spotify.ErrCredentialInvalid))
	_, err := m.Playlists(context.Background())
	assert.True(t, errors.Is(err, library.ErrUnauthorized), "got %v", err)
	assert.Equal(t, state.PhaseLoggedOut, m.GetStatus().Phase)
}

func TestManager_UpstreamErrorStaysActive(t *testing.T) {
	catalog := testCatalog()
	m := newTestManager(t, Deps{Catalog: catalog})

	catalog.setErr(errors.New("503 service unavailable"))
	_, err := m.OpenPlaylist(context.Background(), "p1", "")
	assert.True(t, errors.Is(err, library.ErrUpstream), "got %v", err)
	assert.Equal(t, state.PhaseActive, m.GetStatus().Phase)
	assert.Empty(t, m.GetStatus().PlaylistID)
}

func TestManager_Close(t *testing.T) {
	m, err := NewManager(testConfig(), Deps{Catalog: testCatalog(), Resolver: staticResolver{}, Device: nopDevice{}})
	require.NoError(t, err)
	m.Start()

	m.Close()
	m.Close()

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
	_, err = m.Playlists(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = m.Select("t1")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPlaybackState(t *testing.T) {
	got := PlaybackState(playback.Snapshot{Status: playback.StatusPaused, TrackID: "t1", Volume: 0.3, Source: "deezer"})
	assert.Equal(t, "paused", got.Status)
	assert.Equal(t, "t1", got.TrackId)
	assert.InDelta(t, 0.3, got.Volume, 1e-9)
	assert.Equal(t, "deezer", got.Source)
}
