// Package moodboxv1connect provides Connect handlers and clients for the moodbox v1 services.
package moodboxv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
)

const (
	// LibraryServiceName is the fully-qualified name of the LibraryService service.
	LibraryServiceName = "moodbox.v1.LibraryService"
	// PlaybackServiceName is the fully-qualified name of the PlaybackService service.
	PlaybackServiceName = "moodbox.v1.PlaybackService"
)

// Procedure paths.
const (
	LibraryServiceListPlaylistsProcedure           = "/moodbox.v1.LibraryService/ListPlaylists"
	LibraryServiceOpenPlaylistProcedure            = "/moodbox.v1.LibraryService/OpenPlaylist"
	LibraryServiceCloseViewProcedure               = "/moodbox.v1.LibraryService/CloseView"
	LibraryServiceAnalyzeVibeProcedure             = "/moodbox.v1.LibraryService/AnalyzeVibe"
	PlaybackServiceSelectProcedure                 = "/moodbox.v1.PlaybackService/Select"
	PlaybackServiceSetVolumeProcedure              = "/moodbox.v1.PlaybackService/SetVolume"
	PlaybackServiceTeardownProcedure               = "/moodbox.v1.PlaybackService/Teardown"
	PlaybackServiceGetStatusProcedure              = "/moodbox.v1.PlaybackService/GetStatus"
	PlaybackServiceSubscribeNotificationsProcedure = "/moodbox.v1.PlaybackService/SubscribeNotifications"
)

// LibraryServiceHandler is implemented by the library service.
type LibraryServiceHandler interface {
	ListPlaylists(context.Context, *connect.Request[moodboxv1.ListPlaylistsRequest]) (*connect.Response[moodboxv1.ListPlaylistsResponse], error)
	OpenPlaylist(context.Context, *connect.Request[moodboxv1.OpenPlaylistRequest]) (*connect.Response[moodboxv1.OpenPlaylistResponse], error)
	CloseView(context.Context, *connect.Request[moodboxv1.CloseViewRequest]) (*connect.Response[moodboxv1.CloseViewResponse], error)
	AnalyzeVibe(context.Context, *connect.Request[moodboxv1.AnalyzeVibeRequest]) (*connect.Response[moodboxv1.AnalyzeVibeResponse], error)
}

// PlaybackServiceHandler is implemented by the playback service.
type PlaybackServiceHandler interface {
	Select(context.Context, *connect.Request[moodboxv1.SelectRequest]) (*connect.Response[moodboxv1.SelectResponse], error)
	SetVolume(context.Context, *connect.Request[moodboxv1.SetVolumeRequest]) (*connect.Response[moodboxv1.SetVolumeResponse], error)
	Teardown(context.Context, *connect.Request[moodboxv1.TeardownRequest]) (*connect.Response[moodboxv1.TeardownResponse], error)
	GetStatus(context.Context, *connect.Request[moodboxv1.GetStatusRequest]) (*connect.Response[moodboxv1.GetStatusResponse], error)
	SubscribeNotifications(context.Context, *connect.Request[moodboxv1.SubscribeNotificationsRequest], *connect.ServerStream[moodboxv1.Notification]) error
}

// withCodec prepends the JSON codec so callers may still override options.
func withCodec[T any](opts []T, codecOpt T) []T {
	return append([]T{codecOpt}, opts...)
}

// NewLibraryServiceHandler builds an HTTP handler for the library service.
// It returns the path on which to mount the handler and the handler itself.
func NewLibraryServiceHandler(svc LibraryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(moodboxv1.Codec{})))

	handlers := map[string]http.Handler{
		LibraryServiceListPlaylistsProcedure: connect.NewUnaryHandler(LibraryServiceListPlaylistsProcedure, svc.ListPlaylists, opts...),
		LibraryServiceOpenPlaylistProcedure:  connect.NewUnaryHandler(LibraryServiceOpenPlaylistProcedure, svc.OpenPlaylist, opts...),
		LibraryServiceCloseViewProcedure:     connect.NewUnaryHandler(LibraryServiceCloseViewProcedure, svc.CloseView, opts...),
		LibraryServiceAnalyzeVibeProcedure:   connect.NewUnaryHandler(LibraryServiceAnalyzeVibeProcedure, svc.AnalyzeVibe, opts...),
	}
	return "/" + LibraryServiceName + "/", route(handlers)
}

// NewPlaybackServiceHandler builds an HTTP handler for the playback service.
func NewPlaybackServiceHandler(svc PlaybackServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(moodboxv1.Codec{})))

	handlers := map[string]http.Handler{
		PlaybackServiceSelectProcedure:                 connect.NewUnaryHandler(PlaybackServiceSelectProcedure, svc.Select, opts...),
		PlaybackServiceSetVolumeProcedure:              connect.NewUnaryHandler(PlaybackServiceSetVolumeProcedure, svc.SetVolume, opts...),
		PlaybackServiceTeardownProcedure:               connect.NewUnaryHandler(PlaybackServiceTeardownProcedure, svc.Teardown, opts...),
		PlaybackServiceGetStatusProcedure:              connect.NewUnaryHandler(PlaybackServiceGetStatusProcedure, svc.GetStatus, opts...),
		PlaybackServiceSubscribeNotificationsProcedure: connect.NewServerStreamHandler(PlaybackServiceSubscribeNotificationsProcedure, svc.SubscribeNotifications, opts...),
	}
	return "/" + PlaybackServiceName + "/", route(handlers)
}

func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// LibraryServiceClient is a client for the library service.
type LibraryServiceClient struct {
	listPlaylists *connect.Client[moodboxv1.ListPlaylistsRequest, moodboxv1.ListPlaylistsResponse]
	openPlaylist  *connect.Client[moodboxv1.OpenPlaylistRequest, moodboxv1.OpenPlaylistResponse]
	closeView     *connect.Client[moodboxv1.CloseViewRequest, moodboxv1.CloseViewResponse]
	analyzeVibe   *connect.Client[moodboxv1.AnalyzeVibeRequest, moodboxv1.AnalyzeVibeResponse]
}

// NewLibraryServiceClient creates a library service client for baseURL (e.g. http://localhost:8080).
func NewLibraryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LibraryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(moodboxv1.Codec{})))
	return &LibraryServiceClient{
		listPlaylists: connect.NewClient[moodboxv1.ListPlaylistsRequest, moodboxv1.ListPlaylistsResponse](httpClient, baseURL+LibraryServiceListPlaylistsProcedure, opts...),
		openPlaylist:  connect.NewClient[moodboxv1.OpenPlaylistRequest, moodboxv1.OpenPlaylistResponse](httpClient, baseURL+LibraryServiceOpenPlaylistProcedure, opts...),
		closeView:     connect.NewClient[moodboxv1.CloseViewRequest, moodboxv1.CloseViewResponse](httpClient, baseURL+LibraryServiceCloseViewProcedure, opts...),
		analyzeVibe:   connect.NewClient[moodboxv1.AnalyzeVibeRequest, moodboxv1.AnalyzeVibeResponse](httpClient, baseURL+LibraryServiceAnalyzeVibeProcedure, opts...),
	}
}

// ListPlaylists calls moodbox.v1.LibraryService.ListPlaylists.
func (c *LibraryServiceClient) ListPlaylists(ctx context.Context, req *connect.Request[moodboxv1.ListPlaylistsRequest]) (*connect.Response[moodboxv1.ListPlaylistsResponse], error) {
	return c.listPlaylists.CallUnary(ctx, req)
}

// OpenPlaylist calls moodbox.v1.LibraryService.OpenPlaylist.
func (c *LibraryServiceClient) OpenPlaylist(ctx context.Context, req *connect.Request[moodboxv1.OpenPlaylistRequest]) (*connect.Response[moodboxv1.OpenPlaylistResponse], error) {
	return c.openPlaylist.CallUnary(ctx, req)
}

// CloseView calls moodbox.v1.LibraryService.CloseView.
func (c *LibraryServiceClient) CloseView(ctx context.Context, req *connect.Request[moodboxv1.CloseViewRequest]) (*connect.Response[moodboxv1.CloseViewResponse], error) {
	return c.closeView.CallUnary(ctx, req)
}

// AnalyzeVibe calls moodbox.v1.LibraryService.AnalyzeVibe.
func (c *LibraryServiceClient) AnalyzeVibe(ctx context.Context, req *connect.Request[moodboxv1.AnalyzeVibeRequest]) (*connect.Response[moodboxv1.AnalyzeVibeResponse], error) {
	return c.analyzeVibe.CallUnary(ctx, req)
}

// PlaybackServiceClient is a client for the playback service.
type PlaybackServiceClient struct {
	selectTrack            *connect.Client[moodboxv1.SelectRequest, moodboxv1.SelectResponse]
	setVolume              *connect.Client[moodboxv1.SetVolumeRequest, moodboxv1.SetVolumeResponse]
	teardown               *connect.Client[moodboxv1.TeardownRequest, moodboxv1.TeardownResponse]
	getStatus              *connect.Client[moodboxv1.GetStatusRequest, moodboxv1.GetStatusResponse]
	subscribeNotifications *connect.Client[moodboxv1.SubscribeNotificationsRequest, moodboxv1.Notification]
}

// NewPlaybackServiceClient creates a playback service client for baseURL.
func NewPlaybackServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlaybackServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(moodboxv1.Codec{})))
	return &PlaybackServiceClient{
		selectTrack:            connect.NewClient[moodboxv1.SelectRequest, moodboxv1.SelectResponse](httpClient, baseURL+PlaybackServiceSelectProcedure, opts...),
		setVolume:              connect.NewClient[moodboxv1.SetVolumeRequest, moodboxv1.SetVolumeResponse](httpClient, baseURL+PlaybackServiceSetVolumeProcedure, opts...),
		teardown:               connect.NewClient[moodboxv1.TeardownRequest, moodboxv1.TeardownResponse](httpClient, baseURL+PlaybackServiceTeardownProcedure, opts...),
		getStatus:              connect.NewClient[moodboxv1.GetStatusRequest, moodboxv1.GetStatusResponse](httpClient, baseURL+PlaybackServiceGetStatusProcedure, opts...),
		subscribeNotifications: connect.NewClient[moodboxv1.SubscribeNotificationsRequest, moodboxv1.Notification](httpClient, baseURL+PlaybackServiceSubscribeNotificationsProcedure, opts...),
	}
}

// Select calls moodbox.v1.PlaybackService.Select.
func (c *PlaybackServiceClient) Select(ctx context.Context, req *connect.Request[moodboxv1.SelectRequest]) (*connect.Response[moodboxv1.SelectResponse], error) {
	return c.selectTrack.CallUnary(ctx, req)
}

// SetVolume calls moodbox.v1.PlaybackService.SetVolume.
func (c *PlaybackServiceClient) SetVolume(ctx context.Context, req *connect.Request[moodboxv1.SetVolumeRequest]) (*connect.Response[moodboxv1.SetVolumeResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

// Teardown calls moodbox.v1.PlaybackService.Teardown.
func (c *PlaybackServiceClient) Teardown(ctx context.Context, req *connect.Request[moodboxv1.TeardownRequest]) (*connect.Response[moodboxv1.TeardownResponse], error) {
	return c.teardown.CallUnary(ctx, req)
}

// GetStatus calls moodbox.v1.PlaybackService.GetStatus.
func (c *PlaybackServiceClient) GetStatus(ctx context.Context, req *connect.Request[moodboxv1.GetStatusRequest]) (*connect.Response[moodboxv1.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

// SubscribeNotifications calls moodbox.v1.PlaybackService.SubscribeNotifications.
func (c *PlaybackServiceClient) SubscribeNotifications(ctx context.Context, req *connect.Request[moodboxv1.SubscribeNotificationsRequest]) (*connect.ServerStreamForClient[moodboxv1.Notification], error) {
	return c.subscribeNotifications.CallServerStream(ctx, req)
}
