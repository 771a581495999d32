package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

const (
	// APITokenHeader is the header name for the API token.
	APITokenHeader = "X-Api-Token"
)

var errInvalidToken = errors.New("missing or invalid API token")

// AuthInterceptor validates the API token on unary and streaming calls.
// An empty token disables the check.
type AuthInterceptor struct {
	token string
}

// NewAuthInterceptor creates an interceptor that requires token on every call.
func NewAuthInterceptor(token string) *AuthInterceptor {
	return &AuthInterceptor{token: token}
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// WrapUnary implements connect.Interceptor.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		if !i.valid(req.Header().Get(APITokenHeader)) {
			return nil, connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if !i.valid(conn.RequestHeader().Get(APITokenHeader)) {
			return connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
		}
		return next(ctx, conn)
	}
}

func (i *AuthInterceptor) valid(token string) bool {
	if i.token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) == 1
}
