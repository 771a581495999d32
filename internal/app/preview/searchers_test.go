package preview

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/deezer"
	"github.com/osa030/moodbox/internal/infra/itunes"
)

type fakeITunes struct {
	term  string
	songs []itunes.Song
	err   error
}

func (f *fakeITunes) SearchSongs(ctx context.Context, term string, limit int) ([]itunes.Song, error) {
	f.term = term
	return f.songs, f.err
}

type fakeDeezer struct {
	query  string
	tracks []deezer.Track
	err    error
}

func (f *fakeDeezer) SearchTracks(ctx context.Context, query string, limit int) ([]deezer.Track, error) {
	f.query = query
	return f.tracks, f.err
}

type fakeSpotify struct {
	query  string
	tracks []track.Track
	err    error
}

func (f *fakeSpotify) Search(ctx context.Context, query string, searchType string, limit int) ([]track.Track, error) {
	f.query = query
	return f.tracks, f.err
}

func TestITunesSearcher(t *testing.T) {
	client := &fakeITunes{songs: []itunes.Song{
		{Name: "Song", PreviewURL: "https://a.example.com/1.m4a"},
		{Name: "Song (Live)", PreviewURL: "https://a.example.com/2.m4a"},
	}}
	s := NewITunesSearcher(client)

	url, err := s.Search(context.Background(), "Song", "Artist")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/1.m4a", url, "first hit wins")
	assert.Equal(t, "Song Artist", client.term)
	assert.Equal(t, "itunes", s.Name())

	empty := NewITunesSearcher(&fakeITunes{})
	url, err = empty.Search(context.Background(), "Song", "Artist")
	assert.NoError(t, err)
	assert.Empty(t, url)
}

func TestDeezerSearcher(t *testing.T) {
	client := &fakeDeezer{tracks: []deezer.Track{{Preview: "https://cdns-preview.dzcdn.net/1.mp3"}}}
	s := NewDeezerSearcher(client)

	url, err := s.Search(context.Background(), "Song", "Artist")
	require.NoError(t, err)
	assert.Equal(t, "https://cdns-preview.dzcdn.net/1.mp3", url)
	assert.Equal(t, "Song Artist", client.query)

	failing := NewDeezerSearcher(&fakeDeezer{err: errors.New("boom")})
	_, err = failing.Search(context.Background(), "Song", "Artist")
	assert.Error(t, err)
}

func TestSpotifySearcher(t *testing.T) {
	client := &fakeSpotify{tracks: []track.Track{{ID: "relinked", PreviewURL: "https://p.scdn.co/mp3-preview/r"}}}
	s := NewSpotifySearcher(client)

	url, err := s.Search(context.Background(), "Song", "Artist")
	require.NoError(t, err)
	assert.Equal(t, "https://p.scdn.co/mp3-preview/r", url)
	assert.Equal(t, "spotify", s.Name())
}

func TestNewSearcherFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SearchConfig
		spotify  SpotifyClient
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "disabled", cfg: config.SearchConfig{Type: "none"}, wantNil: true},
		{name: "empty type disables", cfg: config.SearchConfig{}, wantNil: true},
		{name: "deezer defaults", cfg: config.SearchConfig{Type: "deezer"}, wantName: "deezer"},
		{
			name: "itunes with settings",
			cfg: config.SearchConfig{Type: "itunes", Settings: map[string]any{
				"country":             "JP",
				"requests_per_minute": 10,
			}},
			wantName: "itunes",
		},
		{
			name: "itunes invalid country",
			cfg: config.SearchConfig{Type: "itunes", Settings: map[string]any{
				"country": "JAPAN",
			}},
			wantErr: true,
		},
		{name: "spotify", cfg: config.SearchConfig{Type: "spotify"}, spotify: &fakeSpotify{}, wantName: "spotify"},
		{name: "spotify without client", cfg: config.SearchConfig{Type: "spotify"}, wantErr: true},
		{name: "unknown", cfg: config.SearchConfig{Type: "napster"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSearcherFromConfig(tt.cfg, tt.spotify)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, s)
				return
			}
			require.NotNil(t, s)
			assert.Equal(t, tt.wantName, s.Name())
		})
	}
}
