// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/api/moodboxv1/moodboxv1connect"
	"github.com/osa030/moodbox/internal/app/analysis"
	"github.com/osa030/moodbox/internal/app/library"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/infra/config"
)

// LibraryService implements the LibraryService RPC.
type LibraryService struct {
	session *session.Manager
	config  *config.Config
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(session *session.Manager, cfg *config.Config) *LibraryService {
	return &LibraryService{
		session: session,
		config:  cfg,
	}
}

// Ensure LibraryService implements the interface.
var _ moodboxv1connect.LibraryServiceHandler = (*LibraryService)(nil)

// ListPlaylists lists the user's playlists.
func (s *LibraryService) ListPlaylists(
	ctx context.Context,
	req *connect.Request[moodboxv1.ListPlaylistsRequest],
) (*connect.Response[moodboxv1.ListPlaylistsResponse], error) {
	playlists, err := s.session.Playlists(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &moodboxv1.ListPlaylistsResponse{
		Playlists: make([]*moodboxv1.Playlist, len(playlists)),
	}
	for i := range playlists {
		resp.Playlists[i] = toPlaylist(&playlists[i])
	}
	return connect.NewResponse(resp), nil
}

// OpenPlaylist opens a playlist view, replacing the current one.
func (s *LibraryService) OpenPlaylist(
	ctx context.Context,
	req *connect.Request[moodboxv1.OpenPlaylistRequest],
) (*connect.Response[moodboxv1.OpenPlaylistResponse], error) {
	if req.Msg.PlaylistId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playlist_id is required"))
	}

	v, err := s.session.OpenPlaylist(ctx, req.Msg.PlaylistId, req.Msg.Sort)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toOpenPlaylistResponse(v, s.session.GetStatus().Playback)), nil
}

// CloseView closes the open view and stops playback.
func (s *LibraryService) CloseView(
	ctx context.Context,
	req *connect.Request[moodboxv1.CloseViewRequest],
) (*connect.Response[moodboxv1.CloseViewResponse], error) {
	s.session.CloseView()
	return connect.NewResponse(&moodboxv1.CloseViewResponse{}), nil
}

// AnalyzeVibe summarizes the open playlist's vibe.
func (s *LibraryService) AnalyzeVibe(
	ctx context.Context,
	req *connect.Request[moodboxv1.AnalyzeVibeRequest],
) (*connect.Response[moodboxv1.AnalyzeVibeResponse], error) {
	summary, err := s.session.AnalyzeVibe(ctx)
	if err != nil {
		if errors.Is(err, library.ErrNoView) || errors.Is(err, analysis.ErrDisabled) || errors.Is(err, analysis.ErrNoTracks) {
			return nil, toConnectError(err)
		}
		zlog.Warn().Msgf("library_service: vibe analysis failed: error=%v", err)
		return nil, connect.NewError(connect.CodeInternal, errors.New(s.config.GetMessage("vibe_failed")))
	}

	return connect.NewResponse(&moodboxv1.AnalyzeVibeResponse{
		Vibe:             summary.Vibe,
		Tags:             summary.Tags,
		SuggestedArtists: summary.SuggestedArtists,
	}), nil
}
