package google

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()

	a, err := NewAuthenticator("test-client-id", "test-client-secret")
	require.NoError(t, err)
	a.cacheDir = t.TempDir()
	return a
}

func TestNewAuthenticatorRequiresCredentials(t *testing.T) {
	_, err := NewAuthenticator("", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")

	_, err = NewAuthenticator("id", "")
	require.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	a := testAuthenticator(t)

	url := a.AuthURL()

	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "accounts.google.com")
}

func TestHasToken(t *testing.T) {
	a := testAuthenticator(t)
	assert.False(t, a.HasToken())

	writeTokenFile(t, a, "access refresh")
	assert.True(t, a.HasToken())
}

func TestTokenSourceRejectsMalformedFile(t *testing.T) {
	a := testAuthenticator(t)
	writeTokenFile(t, a, "only-one-field")

	_, err := a.TokenSource(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token file format")
}

func TestTokenSourceWithoutFile(t *testing.T) {
	a := testAuthenticator(t)

	_, err := a.TokenSource(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached Google OAuth token")
}

func writeTokenFile(t *testing.T, a *Authenticator, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(a.cacheDir, tokenFileName), []byte(contents), 0600))
}
