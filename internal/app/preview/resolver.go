// Package preview resolves playable preview clips for tracks.
package preview

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Result is the outcome of a resolution: either a playable URL or not found.
type Result struct {
	URL    string
	Found  bool
	Source string // "catalog" or the searcher name
}

// NotFound returns a result without a playable URL.
func NotFound() Result {
	return Result{}
}

// Searcher looks up a preview clip in an external public catalog.
type Searcher interface {
	// Search returns the preview URL of the first hit for the given name and artist.
	// An empty URL with a nil error means the search returned no usable hit.
	Search(ctx context.Context, name, artist string) (string, error)
	// Name returns the searcher name (used in config and logs).
	Name() string
}

// Resolver decides which URL, if any, can be played for a track.
// It is stateless and safe for concurrent use; nothing is cached between calls.
type Resolver struct {
	searcher Searcher
}

// NewResolver creates a resolver. searcher may be nil to disable the fallback search.
func NewResolver(searcher Searcher) *Resolver {
	return &Resolver{searcher: searcher}
}

// Resolve returns the catalog preview when present, otherwise the first hit of one
// fallback search. Every failure resolves to NotFound.
func (r *Resolver) Resolve(ctx context.Context, t track.Track) Result {
	if t.HasPreview() {
		return Result{URL: strings.TrimSpace(t.PreviewURL), Found: true, Source: "catalog"}
	}

	if r.searcher == nil {
		zlog.Debug().Msgf("preview: no catalog preview and fallback disabled: track=%s", t.ID)
		return NotFound()
	}

	url, err := r.searcher.Search(ctx, t.Name, t.PrimaryArtist())
	if err != nil {
		zlog.Warn().Msgf("preview: fallback search failed: searcher=%s track=%s error=%v", r.searcher.Name(), t.ID, err)
		return NotFound()
	}
	url = strings.TrimSpace(url)
	if url == "" {
		zlog.Debug().Msgf("preview: fallback search returned no preview: searcher=%s track=%s", r.searcher.Name(), t.ID)
		return NotFound()
	}

	zlog.Debug().Msgf("preview: resolved via fallback: searcher=%s track=%s", r.searcher.Name(), t.ID)
	return Result{URL: url, Found: true, Source: r.searcher.Name()}
}

// Query builds the keyword query for a fallback search.
func Query(name, artist string) string {
	return strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(artist))
}
