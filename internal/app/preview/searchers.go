package preview

import (
	"context"

	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/deezer"
	"github.com/osa030/moodbox/internal/infra/itunes"
)

// ITunesClient defines the iTunes operations needed by the iTunes searcher.
type ITunesClient interface {
	SearchSongs(ctx context.Context, term string, limit int) ([]itunes.Song, error)
}

// DeezerClient defines the Deezer operations needed by the Deezer searcher.
type DeezerClient interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]deezer.Track, error)
}

// SpotifyClient defines the Spotify operations needed by the Spotify searcher.
type SpotifyClient interface {
	Search(ctx context.Context, query string, searchType string, limit int) ([]track.Track, error)
}

// ITunesSearcher searches the iTunes catalog.
type ITunesSearcher struct {
	client ITunesClient
}

// NewITunesSearcher creates a new ITunesSearcher.
func NewITunesSearcher(client ITunesClient) *ITunesSearcher {
	return &ITunesSearcher{client: client}
}

// Search implements Searcher.
func (s *ITunesSearcher) Search(ctx context.Context, name, artist string) (string, error) {
	songs, err := s.client.SearchSongs(ctx, Query(name, artist), 1)
	if err != nil {
		return "", err
	}
	if len(songs) == 0 {
		return "", nil
	}
	return songs[0].PreviewURL, nil
}

// Name implements Searcher.
func (s *ITunesSearcher) Name() string {
	return "itunes"
}

// DeezerSearcher searches the Deezer catalog.
type DeezerSearcher struct {
	client DeezerClient
}

// NewDeezerSearcher creates a new DeezerSearcher.
func NewDeezerSearcher(client DeezerClient) *DeezerSearcher {
	return &DeezerSearcher{client: client}
}

// Search implements Searcher.
func (s *DeezerSearcher) Search(ctx context.Context, name, artist string) (string, error) {
	tracks, err := s.client.SearchTracks(ctx, Query(name, artist), 1)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", nil
	}
	return tracks[0].Preview, nil
}

// Name implements Searcher.
func (s *DeezerSearcher) Name() string {
	return "deezer"
}

// SpotifySearcher searches Spotify itself, which sometimes returns a preview for a
// relinked copy of a track whose playlist entry has none.
type SpotifySearcher struct {
	client SpotifyClient
}

// NewSpotifySearcher creates a new SpotifySearcher.
func NewSpotifySearcher(client SpotifyClient) *SpotifySearcher {
	return &SpotifySearcher{client: client}
}

// Search implements Searcher.
func (s *SpotifySearcher) Search(ctx context.Context, name, artist string) (string, error) {
	tracks, err := s.client.Search(ctx, Query(name, artist), "track", 1)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", nil
	}
	return tracks[0].PreviewURL, nil
}

// Name implements Searcher.
func (s *SpotifySearcher) Name() string {
	return "spotify"
}
