package spotify

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// ErrCredentialInvalid is returned once the refresh token has been rejected.
var ErrCredentialInvalid = errors.New("spotify credential invalid")

// Scopes are the OAuth scopes the application needs.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserReadPrivate,
}

// CredentialConfig represents the refresh-token credential configuration.
type CredentialConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string // Overrides the Spotify token endpoint (tests)
}

// Credential supplies bearer tokens from a refresh token and signals when
// the token has been rejected by the authorization server.
type Credential struct {
	source oauth2.TokenSource

	mu      sync.Mutex
	invalid chan struct{}
	lastErr error
}

// NewCredential creates a credential supplier.
func NewCredential(ctx context.Context, cfg CredentialConfig) (*Credential, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: tokenURL,
		},
	}

	return &Credential{
		source:  oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
		invalid: make(chan struct{}),
	}, nil
}

// Token returns a valid bearer token, refreshing it when needed.
// A rejected refresh closes the Invalid channel; later calls fail fast.
func (c *Credential) Token() (*oauth2.Token, error) {
	if err := c.Err(); err != nil {
		return nil, err
	}

	token, err := c.source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.invalidate(err)
			return nil, errors.Mark(errors.Wrap(err, "refresh token rejected"), ErrCredentialInvalid)
		}
		return nil, errors.Wrap(err, "failed to obtain token")
	}
	return token, nil
}

// Invalid returns a channel closed once the credential becomes invalid.
func (c *Credential) Invalid() <-chan struct{} {
	return c.invalid
}

// Err returns ErrCredentialInvalid after invalidation, nil otherwise.
func (c *Credential) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return errors.Mark(errors.Wrap(c.lastErr, "credential invalidated"), ErrCredentialInvalid)
	}
	return nil
}

func (c *Credential) invalidate(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return
	}
	c.lastErr = err
	close(c.invalid)
	zlog.Warn().Msgf("spotify: credential invalidated: error=%v", err)
}
