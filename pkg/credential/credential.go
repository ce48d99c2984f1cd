// Package credential loads the pre-authorized calendar token.
//
// The token is produced once, out of band, by an interactive OAuth consent
// flow and stored either as a JSON file or in the system keyring. The JSON
// layout is the "authorized user" format written by Google's client
// libraries:
//
//	{"token": "...", "refresh_token": "...", "token_uri": "...",
//	 "client_id": "...", "client_secret": "...", "scopes": [...],
//	 "expiry": "2024-01-01T10:00:00.000000Z"}
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CalendarReadonlyScope is the only scope idlecal needs.
const CalendarReadonlyScope = "https://www.googleapis.com/auth/calendar.readonly"

// ErrTokenNotFound is returned when no token is stored.
var ErrTokenNotFound = errors.New("calendar token not found")

// AuthorizedUser is a stored OAuth grant.
type AuthorizedUser struct {
	AccessToken  string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

// ParseAuthorizedUser decodes and validates a stored grant.
func ParseAuthorizedUser(data []byte) (*AuthorizedUser, error) {
	var u AuthorizedUser
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	if u.AccessToken == "" && u.RefreshToken == "" {
		return nil, fmt.Errorf("token has neither an access token nor a refresh token")
	}
	if u.RefreshToken != "" && u.ClientID == "" {
		return nil, fmt.Errorf("token has a refresh token but no client_id")
	}
	if u.Expiry != "" {
		if _, err := time.Parse(time.RFC3339, u.Expiry); err != nil {
			return nil, fmt.Errorf("invalid token expiry %q: %w", u.Expiry, err)
		}
	}

	return &u, nil
}

// Token returns the stored access token.
func (u *AuthorizedUser) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  u.AccessToken,
		RefreshToken: u.RefreshToken,
		TokenType:    "Bearer",
	}
	if u.Expiry != "" {
		// validated in ParseAuthorizedUser
		tok.Expiry, _ = time.Parse(time.RFC3339, u.Expiry)
	}
	return tok
}

// OAuthConfig returns the client configuration used to refresh the token.
func (u *AuthorizedUser) OAuthConfig() *oauth2.Config {
	tokenURL := u.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}

	scopes := u.Scopes
	if len(scopes) == 0 {
		scopes = []string{CalendarReadonlyScope}
	}

	return &oauth2.Config{
		ClientID:     u.ClientID,
		ClientSecret: u.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: tokenURL,
		},
		Scopes: scopes,
	}
}

// TokenSource returns a token source that refreshes the stored grant as
// needed.
func (u *AuthorizedUser) TokenSource(ctx context.Context) oauth2.TokenSource {
	return u.OAuthConfig().TokenSource(ctx, u.Token())
}

// Store reads the raw grant from a backing store.
type Store interface {
	Load() ([]byte, error)
	Name() string
}

// Load reads and parses the grant from store.
func Load(store Store) (*AuthorizedUser, error) {
	data, err := store.Load()
	if err != nil {
		return nil, err
	}

	u, err := ParseAuthorizedUser(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", store.Name(), err)
	}
	return u, nil
}
