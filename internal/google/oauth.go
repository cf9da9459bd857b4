package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultScopes are the OAuth scopes the assistant needs: full Gmail
// (read, draft, send), Calendar, and read-only contacts including the
// Workspace directory.
var DefaultScopes = []string{
	gmail.MailGoogleComScope,
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/contacts.readonly",
	"https://www.googleapis.com/auth/contacts.other.readonly",
	"https://www.googleapis.com/auth/directory.readonly",
}

const tokenFileName = "google.token"

// Authenticator handles the OAuth flow and the on-disk token cache.
type Authenticator struct {
	conf     *oauth2.Config
	cacheDir string
}

// NewAuthenticator creates an Authenticator for the given OAuth client.
func NewAuthenticator(clientID, clientSecret string) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("google OAuth client ID and secret are required; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user cache directory: %w", err)
	}

	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       DefaultScopes,
		},
		cacheDir: filepath.Join(base, "draftgate"),
	}, nil
}

func (a *Authenticator) tokenFile() string {
	return filepath.Join(a.cacheDir, tokenFileName)
}

// HasToken reports whether a cached token exists on disk.
func (a *Authenticator) HasToken() bool {
	_, err := os.Stat(a.tokenFile())
	return err == nil
}

// AuthURL returns the URL the user must visit to authorize access.
func (a *Authenticator) AuthURL() string {
	return a.conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
}

// SaveToken exchanges an authorization code and caches the token.
func (a *Authenticator) SaveToken(ctx context.Context, authCode string) error {
	t, err := a.conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := os.MkdirAll(a.cacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(a.tokenFile(), []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// TokenSource returns a refreshing token source backed by the cached
// token. The expiry is forced into the past so the first use refreshes
// the access token.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	slurp, err := os.ReadFile(a.tokenFile())
	if err != nil {
		return nil, fmt.Errorf("no cached Google OAuth token; run the auth flow first")
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token file format")
	}

	ts := a.conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}

	return ts, nil
}

// HTTPClient returns an HTTP client that authenticates requests with the
// cached token. HTTP/2 is disabled to avoid protocol errors against the
// Google APIs.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}
