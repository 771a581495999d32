// Package vibe provides the playlist vibe summary entity.
package vibe

// Summary is a generated description of a playlist's mood.
type Summary struct {
	Vibe             string   `json:"vibe"`             // Short description of mood and style
	Tags             []string `json:"tags"`             // Stylistic tags
	SuggestedArtists []string `json:"suggestedArtists"` // Similar artists not in the playlist
}

// IsEmpty reports whether the summary carries no content.
func (s *Summary) IsEmpty() bool {
	return s.Vibe == "" && len(s.Tags) == 0 && len(s.SuggestedArtists) == 0
}
