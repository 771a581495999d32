package itunes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestSearchSongs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Song Artist", r.URL.Query().Get("term"))
		assert.Equal(t, "song", r.URL.Query().Get("entity"))
		assert.Equal(t, "JP", r.URL.Query().Get("country"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		response := `{
			"resultCount": 1,
			"results": [
				{
					"wrapperType": "track",
					"kind": "song",
					"trackId": 42,
					"trackName": "Song",
					"artistName": "Artist",
					"previewUrl": "https://audio.example.com/preview.m4a",
					"trackViewUrl": "https://music.apple.com/track/42"
				}
			]
		}`
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	defer server.Close()

	client := New(Config{Country: "JP", BaseURL: server.URL})
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	songs, err := client.SearchSongs(context.Background(), "Song Artist", 1)
	assert.NoError(t, err)
	assert.Len(t, songs, 1)
	assert.Equal(t, int64(42), songs[0].TrackID)
	assert.Equal(t, "https://audio.example.com/preview.m4a", songs[0].PreviewURL)
}

func TestSearchSongs_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resultCount": 0, "results": []}`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	songs, err := client.SearchSongs(context.Background(), "nothing", 1)
	assert.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSearchSongs_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	client.limiter = rate.NewLimiter(rate.Inf, 1)

	_, err := client.SearchSongs(context.Background(), "term", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")

	_, err = client.SearchSongs(context.Background(), "", 1)
	assert.Error(t, err)
}
