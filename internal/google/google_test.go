package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/calmate/internal/logging"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)

	assert.False(t, store.Exists())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoToken)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}))
	assert.True(t, store.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(expiry))
}

func TestFileTokenStore_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("access refresh"), 0o600))
	_, err := NewFileTokenStore(garbage).Load()
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o600))
	_, err = NewFileTokenStore(empty).Load()
	assert.Error(t, err)

	assert.Error(t, NewFileTokenStore(filepath.Join(dir, "x.json")).Save(nil))
}

func TestDefaultTokenPath(t *testing.T) {
	assert.Equal(t, "google-token.json", filepath.Base(DefaultTokenPath()))
	assert.Equal(t, DefaultTokenPath(), NewFileTokenStore("").Path())
}

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{
		"client_id":"id.apps.googleusercontent.com",
		"client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["urn:ietf:wg:oauth:2.0:oob","http://localhost"]
	}}`), 0o600))

	conf, err := LoadOAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "id.apps.googleusercontent.com", conf.ClientID)
	assert.Equal(t, DefaultScopes, conf.Scopes)
	assert.Equal(t, LoopbackRedirectURL, conf.RedirectURL)

	_, err = LoadOAuthConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	p := NewTokenProvider(OAuthConfig("client-id", "secret"), NewFileTokenStore(filepath.Join(t.TempDir(), "t.json")), ProviderOptions{Logger: logging.Discard()})

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "calendar")
}

// tokenServer issues a fresh access token for every refresh.
func tokenServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(tokenURL string) *oauth2.Config {
	conf := OAuthConfig("client-id", "secret")
	conf.Endpoint = oauth2.Endpoint{AuthURL: tokenURL + "/auth", TokenURL: tokenURL + "/token"}
	return conf
}

func TestTokenSource_PersistsRefreshedToken(t *testing.T) {
	srv, calls := tokenServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)}))

	p := NewTokenProvider(testConfig(srv.URL), store, ProviderOptions{Logger: logging.Discard()})
	assert.True(t, p.HasToken())

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)

	// Cached until expiry.
	_, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestTokenSource_NoToken(t *testing.T) {
	p := NewTokenProvider(OAuthConfig("id", "secret"), NewFileTokenStore(filepath.Join(t.TempDir(), "none.json")), ProviderOptions{})
	assert.False(t, p.HasToken())

	_, err := p.TokenSource(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenSource_Concurrent(t *testing.T) {
	srv, _ := tokenServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)}))

	p := NewTokenProvider(testConfig(srv.URL), store, ProviderOptions{Logger: logging.Discard()})
	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Token()
			assert.NoError(t, err)
			assert.Equal(t, "fresh", tok.AccessToken)
		}()
	}
	wg.Wait()
}

func TestExchange(t *testing.T) {
	srv, _ := tokenServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	p := NewTokenProvider(testConfig(srv.URL), store, ProviderOptions{Logger: logging.Discard()})

	tok, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.True(t, store.Exists())
}
