// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

const (
	playlistPageSize = 50
	trackPageSize    = 100
	featureChunkSize = 100
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	Market  string
	BaseURL string // Overrides the Web API base URL (tests)
}

// TokenSource supplies bearer tokens to the client.
type TokenSource interface {
	Token() (*oauth2.Token, error)
}

// New creates a new Spotify client authorised by tokens.
func New(ctx context.Context, tokens TokenSource, cfg Config) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("spotify token source is required")
	}
	return newClient(oauth2.NewClient(ctx, tokens), cfg), nil
}

func newClient(httpClient *http.Client, cfg Config) *Client {
	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     spotify.New(httpClient, opts...),
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// GetPlaylists retrieves the current user's playlists (first page).
func (c *Client) GetPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	var page *spotify.SimplePlaylistPage
	err := c.retry(func() error {
		p, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageSize))
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlists")
	}

	playlists := make([]playlist.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		playlists = append(playlists, convertPlaylist(p))
	}
	return playlists, nil
}

// GetPlaylist retrieves playlist metadata together with its first page of tracks.
func (c *Client) GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var full *spotify.FullPlaylist
	err := c.retry(func() error {
		p, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Market(c.market))
		if err != nil {
			return err
		}
		full = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist")
	}

	pl := convertPlaylist(full.SimplePlaylist)
	tracks, err := c.GetPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	pl.Tracks = tracks
	return &pl, nil
}

// GetPlaylistTracks retrieves the first page of tracks from a playlist.
// Local files, episodes and removed items are skipped.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var page *spotify.PlaylistItemPage
	err := c.retry(func() error {
		p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(trackPageSize),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist items")
	}

	tracks := make([]track.Track, 0, len(page.Items))
	for _, item := range page.Items {
		if item.IsLocal || item.Track.Track == nil || item.Track.Track.ID == "" {
			continue
		}
		tracks = append(tracks, c.convertTrack(item.Track.Track))
	}
	if int(page.Total) > trackPageSize {
		zlog.Debug().Msgf("spotify: playlist truncated to first page: playlist=%s total=%d", playlistID, page.Total)
	}
	return tracks, nil
}

// GetAudioFeatures retrieves audio features for the given track IDs in chunks of 100.
// The result is parallel to ids; a missing feature set is nil. A failed chunk
// is logged and yields nils for that chunk.
func (c *Client) GetAudioFeatures(ctx context.Context, ids []string) ([]*track.Features, error) {
	result := make([]*track.Features, len(ids))

	for start := 0; start < len(ids); start += featureChunkSize {
		end := min(start+featureChunkSize, len(ids))
		batch := make([]spotify.ID, end-start)
		for i, id := range ids[start:end] {
			batch[i] = spotify.ID(extractTrackID(id))
		}

		var features []*spotify.AudioFeatures
		err := c.retry(func() error {
			f, err := c.client.GetAudioFeatures(ctx, batch...)
			if err != nil {
				return err
			}
			features = f
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(err, "failed to get audio features")
			}
			zlog.Warn().Msgf("spotify: audio features chunk failed: offset=%d size=%d error=%v", start, len(batch), err)
			continue
		}

		for i, f := range features {
			if f == nil || start+i >= end {
				continue
			}
			result[start+i] = convertFeatures(f)
		}
	}

	return result, nil
}

// Search searches for tracks on Spotify.
func (c *Client) Search(ctx context.Context, query string, searchType string, limit int) ([]track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		// Only track search yields playable previews
		var st spotify.SearchType
		switch searchType {
		case "", "track":
			st = spotify.SearchTypeTrack
		default:
			return errors.Newf("unsupported search type %q", searchType)
		}

		r, err := c.client.Search(ctx, query, st, spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search")
	}

	if result.Tracks == nil {
		return []track.Track{}, nil
	}
	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, c.convertTrack(&result.Tracks.Tracks[i]))
	}

	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	return track.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: albumArt,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		URL:         GetTrackURL(string(t.ID)),
		PreviewURL:  t.PreviewURL,
		Popularity:  int(t.Popularity),
		Explicit:    t.Explicit,
	}
}

func convertPlaylist(p spotify.SimplePlaylist) playlist.Playlist {
	var image string
	if len(p.Images) > 0 {
		image = p.Images[0].URL
	}
	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	return playlist.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Owner:       owner,
		ImageURL:    image,
		URL:         GetPlaylistURL(string(p.ID)),
		TotalTracks: int(p.Tracks.Total),
	}
}

func convertFeatures(f *spotify.AudioFeatures) *track.Features {
	return &track.Features{
		Danceability:     float64(f.Danceability),
		Energy:           float64(f.Energy),
		Valence:          float64(f.Valence),
		Tempo:            float64(f.Tempo),
		Acousticness:     float64(f.Acousticness),
		Instrumentalness: float64(f.Instrumentalness),
		Liveness:         float64(f.Liveness),
		Speechiness:      float64(f.Speechiness),
		Loudness:         float64(f.Loudness),
	}
}

// GetPlaylistURL returns the Spotify URL for a playlist.
func GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentialInvalid) {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

// extractID handles spotify:<kind>:ID URIs, open.spotify.com URLs (including
// intl-XX paths and query parameters) and plain IDs.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	if uriPrefix := "spotify:" + kind + ":"; strings.HasPrefix(input, uriPrefix) {
		return strings.TrimPrefix(input, uriPrefix)
	}

	segment := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, segment) {
		parts := strings.Split(input, segment)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already an ID
	return input
}
