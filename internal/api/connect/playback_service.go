package connect

import (
	"context"

	"connectrpc.com/connect"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/api/moodboxv1/moodboxv1connect"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/app/session/state"
)

// PlaybackService implements the PlaybackService RPC.
type PlaybackService struct {
	session *session.Manager
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(session *session.Manager) *PlaybackService {
	return &PlaybackService{session: session}
}

// Ensure PlaybackService implements the interface.
var _ moodboxv1connect.PlaybackServiceHandler = (*PlaybackService)(nil)

// Select selects a track of the open view. Selecting the current track toggles pause.
func (s *PlaybackService) Select(
	ctx context.Context,
	req *connect.Request[moodboxv1.SelectRequest],
) (*connect.Response[moodboxv1.SelectResponse], error) {
	snap, err := s.session.Select(req.Msg.TrackId)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&moodboxv1.SelectResponse{
		State: session.PlaybackState(snap),
	}), nil
}

// SetVolume sets the playback volume.
func (s *PlaybackService) SetVolume(
	ctx context.Context,
	req *connect.Request[moodboxv1.SetVolumeRequest],
) (*connect.Response[moodboxv1.SetVolumeResponse], error) {
	return connect.NewResponse(&moodboxv1.SetVolumeResponse{
		Volume: s.session.SetVolume(req.Msg.Volume),
	}), nil
}

// Teardown stops playback.
func (s *PlaybackService) Teardown(
	ctx context.Context,
	req *connect.Request[moodboxv1.TeardownRequest],
) (*connect.Response[moodboxv1.TeardownResponse], error) {
	s.session.Teardown()
	return connect.NewResponse(&moodboxv1.TeardownResponse{}), nil
}

// GetStatus returns the session status.
func (s *PlaybackService) GetStatus(
	ctx context.Context,
	req *connect.Request[moodboxv1.GetStatusRequest],
) (*connect.Response[moodboxv1.GetStatusResponse], error) {
	status := s.session.GetStatus()
	return connect.NewResponse(&moodboxv1.GetStatusResponse{
		State:      session.PlaybackState(status.Playback),
		LoggedIn:   status.Phase == state.PhaseActive,
		PlaylistId: status.PlaylistID,
	}), nil
}

// SubscribeNotifications streams session events, starting with the current state.
func (s *PlaybackService) SubscribeNotifications(
	ctx context.Context,
	req *connect.Request[moodboxv1.SubscribeNotificationsRequest],
	stream *connect.ServerStream[moodboxv1.Notification],
) error {
	notifManager := s.session.GetNotificationManager()
	adapter := &notificationStreamAdapter{stream: stream}
	sub := notifManager.SubscribeWithInitial(adapter, func() *moodboxv1.Notification {
		status := s.session.GetStatus()
		return &moodboxv1.Notification{
			Type:       moodboxv1.NotificationTypeInitialState,
			State:      session.PlaybackState(status.Playback),
			TrackId:    status.Playback.TrackID,
			PlaylistId: status.PlaylistID,
		}
	})
	defer func() {
		// The stream must not be used after the handler returns.
		notifManager.Unsubscribe(sub.ID())
		<-sub.Done()
	}()

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	case <-sub.Done():
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[moodboxv1.Notification]
}

func (a *notificationStreamAdapter) Send(notification *moodboxv1.Notification) error {
	return a.stream.Send(notification)
}
