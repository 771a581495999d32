// Package library provides the playlist browsing layer and the open playlist view.
package library

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/sorter"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

var (
	// ErrUpstream marks catalog or feature fetch failures.
	ErrUpstream = errors.New("upstream data failure")
	// ErrUnauthorized marks failures caused by an invalid credential.
	ErrUnauthorized     = errors.New("catalog credential invalid")
	ErrNoView           = errors.New("no playlist view is open")
	ErrTrackNotFound    = errors.New("track not in the open playlist")
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrSuperseded is returned by an Open whose view was closed while it was fetching.
	ErrSuperseded = errors.New("playlist view was closed while opening")
)

// Catalog supplies playlists, tracks and audio features.
type Catalog interface {
	GetPlaylists(ctx context.Context) ([]playlist.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (*playlist.Playlist, error)
	GetAudioFeatures(ctx context.Context, ids []string) ([]*track.Features, error)
}

// Unmounter is notified whenever the open view goes away.
type Unmounter interface {
	Teardown()
}

// View is the open playlist: tracks in catalog order with features attached,
// plus the same tracks ordered by the view's sort key.
type View struct {
	ID       uint64 // Increases with every opened view
	Playlist playlist.Playlist
	Key      sorter.Key
	Sorted   []track.Track
}

// FindTrack returns the view track with the given ID.
func (v *View) FindTrack(trackID string) (track.Track, error) {
	t, ok := v.Playlist.FindTrack(trackID)
	if !ok {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "track %s", trackID)
	}
	return t, nil
}

// Library keeps the single open playlist view.
type Library struct {
	catalog      Catalog
	unmounter    Unmounter
	unauthorized func(error) bool

	mu     sync.RWMutex
	view   *View
	nextID uint64
	gen    uint64 // Bumped by every unmount
}

// New creates a library. unauthorized classifies credential failures; it may be nil.
func New(catalog Catalog, unmounter Unmounter, unauthorized func(error) bool) *Library {
	if unauthorized == nil {
		unauthorized = func(error) bool { return false }
	}
	return &Library{catalog: catalog, unmounter: unmounter, unauthorized: unauthorized}
}

// Playlists lists the user's playlists.
func (l *Library) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	playlists, err := l.catalog.GetPlaylists(ctx)
	if err != nil {
		return nil, l.classify(err, "failed to list playlists")
	}
	return playlists, nil
}

// Open unmounts the current view and opens playlistID sorted by key.
// A fetch failure leaves no view open.
// If the library is unmounted again while fetching, the result is dropped and
// ErrSuperseded is returned.
func (l *Library) Open(ctx context.Context, playlistID string, key sorter.Key) (*View, error) {
	gen := l.unmount()

	pl, err := l.catalog.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, l.classify(err, "failed to get playlist")
	}
	if pl == nil {
		return nil, errors.Wrapf(ErrPlaylistNotFound, "playlist %s", playlistID)
	}

	features, err := l.catalog.GetAudioFeatures(ctx, pl.TrackIDs())
	if err != nil {
		return nil, l.classify(err, "failed to get audio features")
	}

	opened := *pl
	opened.Tracks = track.WithFeatures(pl.Tracks, features)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		zlog.Debug().Msgf("library: dropping superseded open: id=%s", opened.ID)
		return nil, errors.Wrapf(ErrSuperseded, "playlist %s", opened.ID)
	}
	l.nextID++
	l.view = &View{
		ID:       l.nextID,
		Playlist: opened,
		Key:      key,
		Sorted:   sorter.Sort(opened.Tracks, key),
	}
	zlog.Info().Msgf("library: opened playlist: id=%s tracks=%d duration=%ds features=%d sort=%s",
		opened.ID, len(opened.Tracks), opened.TotalDuration(), opened.FeatureCoverage(), key)
	return l.view, nil
}

// Close unmounts the current view.
func (l *Library) Close() {
	l.unmount()
}

// Current returns the open view.
func (l *Library) Current() (*View, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.view == nil {
		return nil, ErrNoView
	}
	return l.view, nil
}

// WithTrack calls fn with a track of the open view. The view cannot be
// unmounted while fn runs, so anything fn starts is torn down by the next unmount.
func (l *Library) WithTrack(trackID string, fn func(track.Track)) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.view == nil {
		return ErrNoView
	}
	t, err := l.view.FindTrack(trackID)
	if err != nil {
		return err
	}
	fn(t)
	return nil
}

// unmount drops the view, tears down playback and returns the new generation.
func (l *Library) unmount() uint64 {
	l.mu.Lock()
	had := l.view != nil
	l.view = nil
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	if l.unmounter != nil {
		l.unmounter.Teardown()
	}
	if had {
		zlog.Debug().Msg("library: view closed")
	}
	return gen
}

func (l *Library) classify(err error, msg string) error {
	wrapped := errors.Wrap(err, msg)
	if l.unauthorized(err) {
		return errors.Mark(wrapped, ErrUnauthorized)
	}
	return errors.Mark(wrapped, ErrUpstream)
}
