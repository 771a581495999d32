// Package moodboxv1 defines the moodbox v1 API messages.
// Messages are plain structs carried by the JSON codec; proto/moodbox/v1/moodbox.proto
// is the contract they follow.
package moodboxv1

// AudioFeatures holds the audio analysis values of a track.
type AudioFeatures struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Loudness         float64 `json:"loudness"`
}

// Track is a catalog track.
type Track struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Artists     []string       `json:"artists"`
	Album       string         `json:"album,omitempty"`
	AlbumArtUrl string         `json:"album_art_url,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	Url         string         `json:"url,omitempty"`
	HasPreview  bool           `json:"has_preview"`
	Features    *AudioFeatures `json:"features,omitempty"`
}

// RowState holds the per-row render flags.
type RowState struct {
	IsCurrent     bool `json:"is_current"`
	IsPlaying     bool `json:"is_playing"`
	IsLoading     bool `json:"is_loading"`
	IsUnavailable bool `json:"is_unavailable"`
}

// TrackRow is a track with its render flags.
type TrackRow struct {
	Track *Track    `json:"track"`
	State *RowState `json:"state"`
}

// Playlist is playlist metadata.
type Playlist struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	ImageUrl    string `json:"image_url,omitempty"`
	Url         string `json:"url,omitempty"`
	TotalTracks int32  `json:"total_tracks"`
}

// PlaybackState is the playback session snapshot.
type PlaybackState struct {
	Status  string  `json:"status"` // idle, resolving, playing, paused, unavailable
	TrackId string  `json:"track_id,omitempty"`
	Volume  float64 `json:"volume"`
	Source  string  `json:"source,omitempty"`
}

type ListPlaylistsRequest struct{}

type ListPlaylistsResponse struct {
	Playlists []*Playlist `json:"playlists"`
}

type OpenPlaylistRequest struct {
	PlaylistId string `json:"playlist_id"`
	Sort       string `json:"sort,omitempty"` // default, energy, danceability, tempo
}

type OpenPlaylistResponse struct {
	Playlist        *Playlist   `json:"playlist"`
	Rows            []*TrackRow `json:"rows"`
	Sort            string      `json:"sort"`
	FeatureCoverage float64     `json:"feature_coverage"`
}

type CloseViewRequest struct{}

type CloseViewResponse struct{}

type AnalyzeVibeRequest struct{}

type AnalyzeVibeResponse struct {
	Vibe             string   `json:"vibe"`
	Tags             []string `json:"tags"`
	SuggestedArtists []string `json:"suggested_artists"`
}

type SelectRequest struct {
	TrackId string `json:"track_id"`
}

type SelectResponse struct {
	State *PlaybackState `json:"state"`
}

type SetVolumeRequest struct {
	Volume float64 `json:"volume"`
}

type SetVolumeResponse struct {
	Volume float64 `json:"volume"`
}

type TeardownRequest struct{}

type TeardownResponse struct{}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	State      *PlaybackState `json:"state"`
	LoggedIn   bool           `json:"logged_in"`
	PlaylistId string         `json:"playlist_id,omitempty"`
}

type SubscribeNotificationsRequest struct{}

// NotificationType identifies a notification.
type NotificationType string

const (
	NotificationTypeInitialState   NotificationType = "initial_state"
	NotificationTypeResolving      NotificationType = "resolving"
	NotificationTypeStarted        NotificationType = "started"
	NotificationTypePaused         NotificationType = "paused"
	NotificationTypeResumed        NotificationType = "resumed"
	NotificationTypeEnded          NotificationType = "ended"
	NotificationTypeUnavailable    NotificationType = "unavailable"
	NotificationTypePlaybackFailed NotificationType = "playback_failed"
	NotificationTypeVolumeChanged  NotificationType = "volume_changed"
	NotificationTypeStopped        NotificationType = "stopped"
	NotificationTypeViewChanged    NotificationType = "view_changed"
	NotificationTypeSessionExpired NotificationType = "session_expired"
)

// Notification is a server-pushed session event.
type Notification struct {
	Type       NotificationType `json:"type"`
	SequenceNo uint64           `json:"sequence_no"`
	State      *PlaybackState   `json:"state,omitempty"`
	TrackId    string           `json:"track_id,omitempty"`
	PlaylistId string           `json:"playlist_id,omitempty"`
	Message    string           `json:"message,omitempty"`
}
