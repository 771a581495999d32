package connect

import (
	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/app/library"
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/view"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

func toPlaylist(p *playlist.Playlist) *moodboxv1.Playlist {
	return &moodboxv1.Playlist{
		Id:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner,
		ImageUrl:    p.ImageURL,
		Url:         p.URL,
		TotalTracks: int32(p.TotalTracks),
	}
}

func toTrack(t *track.Track) *moodboxv1.Track {
	msg := &moodboxv1.Track{
		Id:          t.ID,
		Name:        t.Name,
		Artists:     t.Artists,
		Album:       t.Album,
		AlbumArtUrl: t.AlbumArtURL,
		DurationMs:  t.Duration.Milliseconds(),
		Url:         t.URL,
		HasPreview:  t.HasPreview(),
	}
	if f := t.Features; f != nil {
		msg.Features = &moodboxv1.AudioFeatures{
			Danceability:     f.Danceability,
			Energy:           f.Energy,
			Valence:          f.Valence,
			Tempo:            f.Tempo,
			Acousticness:     f.Acousticness,
			Instrumentalness: f.Instrumentalness,
			Liveness:         f.Liveness,
			Speechiness:      f.Speechiness,
			Loudness:         f.Loudness,
		}
	}
	return msg
}

func toRowState(r view.RowState) *moodboxv1.RowState {
	return &moodboxv1.RowState{
		IsCurrent:     r.IsCurrent,
		IsPlaying:     r.IsPlaying,
		IsLoading:     r.IsLoading,
		IsUnavailable: r.IsUnavailable,
	}
}

// toOpenPlaylistResponse renders the view in sorted order with row flags for snap.
func toOpenPlaylistResponse(v *library.View, snap playback.Snapshot) *moodboxv1.OpenPlaylistResponse {
	states := view.Rows(snap, v.Sorted)
	rows := make([]*moodboxv1.TrackRow, len(v.Sorted))
	for i := range v.Sorted {
		rows[i] = &moodboxv1.TrackRow{
			Track: toTrack(&v.Sorted[i]),
			State: toRowState(states[i]),
		}
	}

	var coverage float64
	if n := len(v.Playlist.Tracks); n > 0 {
		coverage = float64(v.Playlist.FeatureCoverage()) / float64(n)
	}

	return &moodboxv1.OpenPlaylistResponse{
		Playlist:        toPlaylist(&v.Playlist),
		Rows:            rows,
		Sort:            string(v.Key),
		FeatureCoverage: coverage,
	}
}
