// Package analysis orchestrates playlist vibe analysis.
package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/domain/vibe"
)

var (
	ErrDisabled = errors.New("vibe analysis is disabled")
	ErrNoTracks = errors.New("no tracks to analyze")
)

// Summarizer produces a vibe summary from track descriptions.
type Summarizer interface {
	Summarize(ctx context.Context, descriptions []string) (vibe.Summary, error)
}

// Tagger looks up descriptive tags for a track.
type Tagger interface {
	TagNames(ctx context.Context, trackName, artistName string, limit int) ([]string, error)
}

// Config holds analyzer configuration.
type Config struct {
	MaxTracks int // Tracks sent to the summarizer
	TagCount  int // Tags appended per track when a tagger is set
}

// Analyzer runs at most one successful analysis per playlist view.
type Analyzer struct {
	summarizer Summarizer
	tagger     Tagger
	config     Config

	// mu serialises analyses so concurrent calls for one view share a single request.
	mu     sync.Mutex
	viewID uint64
	memo   *vibe.Summary
}

// NewAnalyzer creates an analyzer. summarizer nil disables analysis; tagger is optional.
func NewAnalyzer(summarizer Summarizer, tagger Tagger, config Config) *Analyzer {
	if config.MaxTracks <= 0 {
		config.MaxTracks = 30
	}
	if config.TagCount <= 0 {
		config.TagCount = 3
	}
	return &Analyzer{summarizer: summarizer, tagger: tagger, config: config}
}

// Enabled reports whether a summarizer is configured.
func (a *Analyzer) Enabled() bool {
	return a.summarizer != nil
}

// Analyze returns the vibe summary for the view. A successful result is
// memoised until a different viewID is analysed; failures are not.
func (a *Analyzer) Analyze(ctx context.Context, viewID uint64, tracks []track.Track) (vibe.Summary, error) {
	if a.summarizer == nil {
		return vibe.Summary{}, ErrDisabled
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.memo != nil && a.viewID == viewID {
		zlog.Debug().Msgf("analysis: using memoised summary: view=%d", viewID)
		return *a.memo, nil
	}

	if len(tracks) == 0 {
		return vibe.Summary{}, ErrNoTracks
	}
	if len(tracks) > a.config.MaxTracks {
		tracks = tracks[:a.config.MaxTracks]
	}

	summary, err := a.summarizer.Summarize(ctx, a.describe(ctx, tracks))
	if err != nil {
		return vibe.Summary{}, errors.Wrap(err, "failed to summarize playlist")
	}
	if summary.IsEmpty() {
		return vibe.Summary{}, errors.New("summarizer returned an empty summary")
	}

	a.viewID = viewID
	a.memo = &summary
	zlog.Info().Msgf("analysis: playlist analyzed: view=%d tracks=%d", viewID, len(tracks))
	return summary, nil
}

// Forget drops the memoised summary.
func (a *Analyzer) Forget() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memo = nil
	a.viewID = 0
}

// describe builds "{name} by {artist}" descriptions, enriched with tags when a tagger is set.
// Tag lookup failures leave the plain description.
func (a *Analyzer) describe(ctx context.Context, tracks []track.Track) []string {
	descriptions := make([]string, len(tracks))
	if a.tagger == nil {
		for i := range tracks {
			descriptions[i] = tracks[i].Description()
		}
		return descriptions
	}

	var wg sync.WaitGroup
	for i := range tracks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			t := &tracks[i]
			descriptions[i] = t.Description()

			tags, err := a.tagger.TagNames(ctx, t.Name, t.PrimaryArtist(), a.config.TagCount)
			if err != nil {
				zlog.Debug().Msgf("analysis: tag lookup failed: track=%s error=%v", t.ID, err)
				return
			}
			if len(tags) > 0 {
				descriptions[i] += " (" + strings.Join(tags, ", ") + ")"
			}
		}(i)
	}
	wg.Wait()
	return descriptions
}
