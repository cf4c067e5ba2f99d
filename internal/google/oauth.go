package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
)

// DefaultScopes grants read and write access to calendars.
var DefaultScopes = []string{gcal.CalendarScope}

// LoopbackRedirectURL is used for the manual copy-paste authorization flow.
// The browser lands on an unreachable local page whose URL carries the code.
const LoopbackRedirectURL = "http://127.0.0.1"

// OAuthConfig builds a config for an installed application.
func OAuthConfig(clientID, clientSecret string, scopes ...string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  LoopbackRedirectURL,
		Scopes:       scopes,
	}
}

// LoadOAuthConfig reads a client secrets JSON file as downloaded from the
// Google Cloud console.
func LoadOAuthConfig(credentialsPath string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsPath, err)
	}
	if conf.RedirectURL == "" || conf.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" {
		conf.RedirectURL = LoopbackRedirectURL
	}
	return conf, nil
}

// AuthURL returns the URL the user visits to grant access. Offline access
// and a forced consent prompt make Google return a refresh token.
func (p *TokenProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and saves it.
func (p *TokenProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		p.recordAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := p.store.Save(tok); err != nil {
		return nil, err
	}
	p.recordAuth(ctx, instrumentation.OAuthResultSuccess)
	p.logger.Info("saved google token", "access_token", logging.SanitizeToken(tok.AccessToken))
	return tok, nil
}
