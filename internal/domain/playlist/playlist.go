// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/moodbox/internal/domain/track"

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID          string        // Spotify Playlist ID
	Name        string        // Playlist name
	Description string        // Playlist description
	Owner       string        // Owner display name
	ImageURL    string        // Cover image URL
	URL         string        // Spotify URL
	TotalTracks int           // Track count reported by the catalog
	Tracks      []track.Track // Loaded tracks (empty for listings)
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	return track.IDs(p.Tracks)
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, t := range p.Tracks {
		total += int64(t.Duration.Seconds())
	}
	return total
}

// FindTrack returns the loaded track with the given ID.
func (p *Playlist) FindTrack(id string) (track.Track, bool) {
	for _, t := range p.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return track.Track{}, false
}

// FeatureCoverage returns how many loaded tracks carry audio features.
func (p *Playlist) FeatureCoverage() int {
	n := 0
	for _, t := range p.Tracks {
		if t.Features != nil {
			n++
		}
	}
	return n
}
