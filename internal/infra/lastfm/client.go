// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Client is a Last.fm API client used to enrich track descriptions with tags.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Cache for track tags, keyed by artist and track
	cache   map[string][]Tag
	cacheMu sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey string
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag count/frequency
}

// getTopTagsResponse represents the response from track.getTopTags API.
type getTopTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

// apiError represents an error response from Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    "https://ws.audioscrobbler.com/2.0/",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string][]Tag),
	}, nil
}

// GetTopTags retrieves top tags for a track from Last.fm.
// Reference: https://www.last.fm/api/show/track.getTopTags
func (c *Client) GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]Tag, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	cacheKey := strings.ToLower(artistName + "\x00" + trackName)
	c.cacheMu.RLock()
	if tags, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("lastfm: using cached tags: artist=%s track=%s", artistName, trackName)
		return truncate(tags, limit), nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("method", "track.getTopTags")
	params.Set("api_key", c.apiKey)
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return nil, errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("last.fm returned status %d", resp.StatusCode)
	}

	var response getTopTagsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tags := make([]Tag, 0, len(response.TopTags.Tag))
	for _, t := range response.TopTags.Tag {
		tags = append(tags, Tag{Name: t.Name, Count: t.Count})
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = tags
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("lastfm: cached tags: artist=%s track=%s count=%d", artistName, trackName, len(tags))

	return truncate(tags, limit), nil
}

// TagNames returns the names of the top limit tags, for use in prompts.
func (c *Client) TagNames(ctx context.Context, trackName, artistName string, limit int) ([]string, error) {
	tags, err := c.GetTopTags(ctx, trackName, artistName, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}

func truncate(tags []Tag, limit int) []Tag {
	if len(tags) > limit {
		return tags[:limit]
	}
	return tags
}
