package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential_RequiresFields(t *testing.T) {
	_, err := NewCredential(context.Background(), CredentialConfig{ClientID: "id"})
	assert.Error(t, err)
}

func TestCredential_Token(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","token_type":"Bearer","expires_in":3600}`)
	}))
	defer server.Close()

	cred, err := NewCredential(context.Background(), CredentialConfig{
		ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh", TokenURL: server.URL,
	})
	require.NoError(t, err)

	token, err := cred.Token()
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.NoError(t, cred.Err())

	select {
	case <-cred.Invalid():
		t.Fatal("credential should still be valid")
	default:
	}
}

func TestCredential_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Refresh token revoked"}`)
	}))
	defer server.Close()

	cred, err := NewCredential(context.Background(), CredentialConfig{
		ClientID: "id", ClientSecret: "secret", RefreshToken: "revoked", TokenURL: server.URL,
	})
	require.NoError(t, err)

	_, err = cred.Token()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentialInvalid))

	select {
	case <-cred.Invalid():
	default:
		t.Fatal("invalid channel should be closed")
	}

	// Subsequent calls fail fast without closing the channel twice
	_, err = cred.Token()
	assert.True(t, errors.Is(err, ErrCredentialInvalid))
	assert.True(t, errors.Is(cred.Err(), ErrCredentialInvalid))
}
