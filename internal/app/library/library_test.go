package library

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/app/sorter"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

var errRevoked = errors.New("token revoked")

type fakeCatalog struct {
	playlists   map[string]*playlist.Playlist
	features    map[string]*track.Features
	listErr     error
	getErr      error
	featuresErr error
	onFeatures  func()
}

func (f *fakeCatalog) GetPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []playlist.Playlist
	for _, p := range f.playlists {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalog) GetPlaylist(ctx context.Context, playlistID string) (*playlist.Playlist, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.playlists[playlistID]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return p, nil
}

func (f *fakeCatalog) GetAudioFeatures(ctx context.Context, ids []string) ([]*track.Features, error) {
	if f.onFeatures != nil {
		f.onFeatures()
	}
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	out := make([]*track.Features, len(ids))
	for i, id := range ids {
		out[i] = f.features[id]
	}
	return out, nil
}

type countingUnmounter struct {
	teardowns int
}

func (c *countingUnmounter) Teardown() {
	c.teardowns++
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		playlists: map[string]*playlist.Playlist{
			"pl1": {
				ID:   "pl1",
				Name: "Mix",
				Tracks: []track.Track{
					{ID: "1", Name: "One"},
					{ID: "2", Name: "Two"},
					{ID: "3", Name: "Three"},
				},
			},
		},
		features: map[string]*track.Features{
			"1": {Energy: 0.5},
			"2": {Energy: 0.9},
		},
	}
}

func isRevoked(err error) bool {
	return errors.Is(err, errRevoked)
}

func TestLibrary_Open(t *testing.T) {
	catalog := newCatalog()
	unmounter := &countingUnmounter{}
	lib := New(catalog, unmounter, isRevoked)

	view, err := lib.Open(context.Background(), "pl1", sorter.KeyEnergy)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), view.ID)
	assert.Equal(t, []string{"1", "2", "3"}, view.Playlist.TrackIDs(), "catalog order kept")
	assert.Equal(t, []string{"2", "1", "3"}, track.IDs(view.Sorted))
	assert.Equal(t, 2, view.Playlist.FeatureCoverage())
	assert.Nil(t, catalog.playlists["pl1"].Tracks[0].Features, "catalog data is not mutated")
	assert.Equal(t, 1, unmounter.teardowns, "opening unmounts the previous view")

	current, err := lib.Current()
	require.NoError(t, err)
	assert.Same(t, view, current)

	var trk track.Track
	err = lib.WithTrack("2", func(found track.Track) { trk = found })
	require.NoError(t, err)
	assert.Equal(t, 0.9, trk.Energy())

	err = lib.WithTrack("missing", func(track.Track) { t.Fatal("called for a missing track") })
	assert.ErrorIs(t, err, ErrTrackNotFound)

	again, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), again.ID)
	assert.Equal(t, []string{"1", "2", "3"}, track.IDs(again.Sorted))
	assert.Equal(t, 2, unmounter.teardowns)
}

func TestLibrary_Close(t *testing.T) {
	unmounter := &countingUnmounter{}
	lib := New(newCatalog(), unmounter, nil)

	_, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
	require.NoError(t, err)

	lib.Close()
	assert.Equal(t, 2, unmounter.teardowns)

	_, err = lib.Current()
	assert.ErrorIs(t, err, ErrNoView)
	err = lib.WithTrack("1", func(track.Track) { t.Fatal("called without a view") })
	assert.ErrorIs(t, err, ErrNoView)
}

func TestLibrary_OpenSupersededByClose(t *testing.T) {
	catalog := newCatalog()
	unmounter := &countingUnmounter{}
	lib := New(catalog, unmounter, nil)
	catalog.onFeatures = lib.Close

	_, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSuperseded), "got %v", err)
	assert.Equal(t, 2, unmounter.teardowns)

	_, err = lib.Current()
	assert.ErrorIs(t, err, ErrNoView, "a superseded open installs no view")

	catalog.onFeatures = nil
	view, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.ID)
}

func TestLibrary_WithTrackBlocksUnmount(t *testing.T) {
	lib := New(newCatalog(), &countingUnmounter{}, nil)
	_, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = lib.WithTrack("1", func(track.Track) {
			close(entered)
			<-release
		})
	}()
	<-entered

	closed := make(chan struct{})
	go func() {
		lib.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("view unmounted while a track was being used")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not complete")
	}
}

func TestLibrary_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *fakeCatalog)
		wantErr error
	}{
		{
			name:    "playlist fetch fails",
			mutate:  func(c *fakeCatalog) { c.getErr = errors.New("503 service unavailable") },
			wantErr: ErrUpstream,
		},
		{
			name:    "feature fetch fails",
			mutate:  func(c *fakeCatalog) { c.featuresErr = errors.New("boom") },
			wantErr: ErrUpstream,
		},
		{
			name:    "credential revoked",
			mutate:  func(c *fakeCatalog) { c.getErr = errors.Wrap(errRevoked, "transport") },
			wantErr: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newCatalog()
			tt.mutate(catalog)
			lib := New(catalog, &countingUnmounter{}, isRevoked)

			_, err := lib.Open(context.Background(), "pl1", sorter.KeyDefault)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			_, err = lib.Current()
			assert.ErrorIs(t, err, ErrNoView, "a failed open leaves no view")
		})
	}
}

func TestLibrary_Playlists(t *testing.T) {
	lib := New(newCatalog(), nil, isRevoked)
	playlists, err := lib.Playlists(context.Background())
	require.NoError(t, err)
	assert.Len(t, playlists, 1)

	catalog := newCatalog()
	catalog.listErr = errRevoked
	lib = New(catalog, nil, isRevoked)
	_, err = lib.Playlists(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
