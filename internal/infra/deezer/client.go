// Package deezer provides a client for the public Deezer search API.
package deezer

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

const defaultBaseURL = "https://api.deezer.com"

// Client is a Deezer API client. No authentication is required for search.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config represents Deezer client configuration.
type Config struct {
	RequestsPerSecond float64
	BaseURL           string
}

// Track represents a track returned by the search.
type Track struct {
	ID      int64
	Title   string
	Artist  string
	Preview string // 30 second MP3 clip URL
}

// searchResponse represents the /search response.
type searchResponse struct {
	Data []struct {
		ID      int64  `json:"id"`
		Title   string `json:"title"`
		Preview string `json:"preview"`
		Artist  struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// apiError represents an error payload. Deezer answers errors with HTTP 200.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// New creates a new Deezer client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// SearchTracks searches tracks by free-text query.
// Reference: https://developers.deezer.com/api/search
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	reqURL := c.baseURL + "/search/track?" + params.Encode()

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
		return nil, errors.Newf("deezer search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}
	if response.Error != nil {
		return nil, errors.Errorf("deezer API error %d: %s", response.Error.Code, response.Error.Message)
	}

	tracks := make([]Track, 0, len(response.Data))
	for _, d := range response.Data {
		tracks = append(tracks, Track{
			ID:      d.ID,
			Title:   d.Title,
			Artist:  d.Artist.Name,
			Preview: d.Preview,
		})
	}

	zlog.Debug().Msgf("deezer: search query=%q results=%d", query, len(tracks))
	return tracks, nil
}
