package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Credentials holds what's needed to act on the calendar: either a service
// account key or an OAuth client with a long lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RefreshToken string

	// ServiceAccountJSON, when set, takes precedence over the OAuth client.
	ServiceAccountJSON []byte

	Scopes []string
}

// HTTPClient returns an http.Client that authorizes every request with creds.
// Tokens are refreshed on demand by the returned client.
func HTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{calendar.CalendarScope}
	}

	if len(creds.ServiceAccountJSON) > 0 {
		cfg, err := google.JWTConfigFromJSON(creds.ServiceAccountJSON, scopes...)
		if err != nil {
			return nil, fmt.Errorf("google: parsing service account key: %v", err)
		}
		return cfg.Client(ctx), nil
	}

	if creds.ClientID == "" || creds.RefreshToken == "" {
		return nil, errors.New("google: no credentials, need a service account key or an oauth client with refresh token")
	}
	oauthCfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
	return oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}), nil
}
