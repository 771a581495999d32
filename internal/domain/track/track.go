// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a Spotify track entity.
// Tracks are read-only once fetched from the catalog.
type Track struct {
	ID          string        // Spotify Track ID
	Name        string        // Track name
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	URL         string        // Spotify URL
	PreviewURL  string        // Catalog-supplied preview clip URL (empty if absent)
	Popularity  int           // Popularity score (0-100)
	Explicit    bool          // Explicit content flag
	Features    *Features     // Audio features (nil if the catalog has none)
}

// Features holds the audio analysis values of a track.
// All values except Tempo (BPM) and Loudness (dB) are in [0,1].
type Features struct {
	Danceability     float64
	Energy           float64
	Valence          float64
	Tempo            float64
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Speechiness      float64
	Loudness         float64
}

// PrimaryArtist returns the first artist name, or an empty string.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// HasPreview reports whether the catalog supplied a preview URL.
func (t *Track) HasPreview() bool {
	return strings.TrimSpace(t.PreviewURL) != ""
}

// Description returns "name by artist", used as input for vibe analysis.
func (t *Track) Description() string {
	artist := t.PrimaryArtist()
	if artist == "" {
		return t.Name
	}
	return t.Name + " by " + artist
}

// Energy returns the energy feature, or 0 when features are absent.
func (t *Track) Energy() float64 {
	if t.Features == nil {
		return 0
	}
	return t.Features.Energy
}

// Danceability returns the danceability feature, or 0 when features are absent.
func (t *Track) Danceability() float64 {
	if t.Features == nil {
		return 0
	}
	return t.Features.Danceability
}

// Tempo returns the tempo in BPM, or 0 when features are absent.
func (t *Track) Tempo() float64 {
	if t.Features == nil {
		return 0
	}
	return t.Features.Tempo
}

// WithFeatures attaches features to a slice of tracks by position.
// features is a parallel slice; nil entries and missing positions leave Features unset.
// The input slice is not modified.
func WithFeatures(tracks []Track, features []*Features) []Track {
	result := make([]Track, len(tracks))
	copy(result, tracks)
	for i := range result {
		if i < len(features) && features[i] != nil {
			f := *features[i]
			result[i].Features = &f
		}
	}
	return result
}

// IDs returns the IDs of the given tracks in order.
func IDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
