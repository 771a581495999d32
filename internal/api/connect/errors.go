package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/moodbox/internal/app/analysis"
	"github.com/osa030/moodbox/internal/app/library"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/app/sorter"
)

// toConnectError maps application errors to Connect status codes.
func toConnectError(err error) *connect.Error {
	var code connect.Code
	switch {
	case errors.Is(err, library.ErrUnauthorized):
		code = connect.CodeUnauthenticated
	case errors.Is(err, library.ErrUpstream):
		code = connect.CodeUnavailable
	case errors.Is(err, library.ErrPlaylistNotFound), errors.Is(err, library.ErrTrackNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, library.ErrNoView), errors.Is(err, analysis.ErrDisabled),
		errors.Is(err, analysis.ErrNoTracks), errors.Is(err, session.ErrSessionClosed):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, library.ErrSuperseded):
		code = connect.CodeAborted
	case errors.Is(err, sorter.ErrUnknownKey):
		code = connect.CodeInvalidArgument
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
