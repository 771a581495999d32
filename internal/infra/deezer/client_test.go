package deezer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSearchTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/track", r.URL.Path)
		assert.Equal(t, "Song Artist", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		response := `{
			"data": [
				{
					"id": 3135556,
					"title": "Song",
					"preview": "https://cdns-preview.dzcdn.net/stream/abc.mp3",
					"artist": {"id": 27, "name": "Artist"}
				}
			],
			"total": 1
		}`
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	tracks, err := client.SearchTracks(context.Background(), "Song Artist", 1)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Artist", tracks[0].Artist)
	assert.Equal(t, "https://cdns-preview.dzcdn.net/stream/abc.mp3", tracks[0].Preview)
}

func TestSearchTracks_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": {"type": "Exception", "message": "Quota limit exceeded", "code": 4}}`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	_, err := client.SearchTracks(context.Background(), "q", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Quota limit exceeded")
}

func TestSearchTracks_RateLimiterHonoursContext(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:0"})
	client.limiter = rate.NewLimiter(rate.Limit(0.0001), 1)
	// Drain the single burst token
	client.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchTracks(ctx, "q", 1)
	assert.Error(t, err)
}
