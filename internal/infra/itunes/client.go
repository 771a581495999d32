// Package itunes provides a client for the iTunes Search API.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://itunes.apple.com/search"

// Client is an iTunes Search API client.
// Apple documents a budget of roughly 20 calls per minute, enforced with a token bucket.
type Client struct {
	baseURL    string
	country    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config represents iTunes client configuration.
type Config struct {
	Country           string
	RequestsPerMinute float64
	BaseURL           string
}

// Song represents a song returned by the search.
type Song struct {
	TrackID    int64
	Name       string
	Artist     string
	PreviewURL string
	ViewURL    string
}

// searchResponse represents the search API response.
type searchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackID      int64  `json:"trackId"`
		TrackName    string `json:"trackName"`
		ArtistName   string `json:"artistName"`
		PreviewURL   string `json:"previewUrl"`
		TrackViewURL string `json:"trackViewUrl"`
	} `json:"results"`
}

// New creates a new iTunes client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	country := cfg.Country
	if country == "" {
		country = "US"
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &Client{
		baseURL:    baseURL,
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rpm/60), 1),
	}
}

// SearchSongs searches songs by free-text term.
// Reference: https://developer.apple.com/library/archive/documentation/AudioVideo/Conceptual/iTuneSearchAPI/
func (c *Client) SearchSongs(ctx context.Context, term string, limit int) ([]Song, error) {
	if term == "" {
		return nil, errors.New("search term is required")
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("country", c.country)
	params.Set("limit", fmt.Sprintf("%d", limit))

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("itunes search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	songs := make([]Song, 0, len(response.Results))
	for _, r := range response.Results {
		songs = append(songs, Song{
			TrackID:    r.TrackID,
			Name:       r.TrackName,
			Artist:     r.ArtistName,
			PreviewURL: r.PreviewURL,
			ViewURL:    r.TrackViewURL,
		})
	}

	zlog.Debug().Msgf("itunes: search term=%q results=%d", term, len(songs))
	return songs, nil
}
