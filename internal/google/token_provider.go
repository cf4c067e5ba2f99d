package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
)

// TokenProvider hands out token sources backed by a TokenStore.
type TokenProvider struct {
	conf    *oauth2.Config
	store   TokenStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// ProviderOptions configures a TokenProvider.
type ProviderOptions struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// NewTokenProvider creates a TokenProvider.
func NewTokenProvider(conf *oauth2.Config, store TokenStore, opts ProviderOptions) *TokenProvider {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenProvider{
		conf:    conf,
		store:   store,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// HasToken reports whether the store holds a usable token.
func (p *TokenProvider) HasToken() bool {
	_, err := p.store.Load()
	return err == nil
}

// TokenSource returns a token source that refreshes through the OAuth
// config and writes refreshed tokens back to the store. It is safe for
// concurrent use.
func (p *TokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base:     p.conf.TokenSource(ctx, tok),
		provider: p,
		ctx:      ctx,
		last:     tok.AccessToken,
	}, nil
}

type persistingTokenSource struct {
	mu       sync.Mutex
	base     oauth2.TokenSource
	provider *TokenProvider
	ctx      context.Context
	last     string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		s.provider.record(s.ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to refresh Google token: %w", err)
	}
	if tok.AccessToken == s.last {
		return tok, nil
	}

	s.last = tok.AccessToken
	s.provider.record(s.ctx, instrumentation.OAuthResultSuccess)
	if err := s.provider.store.Save(tok); err != nil {
		// The refreshed token is still valid for this process.
		s.provider.logger.Warn("failed to persist refreshed token", logging.Err(err))
	} else {
		s.provider.logger.Debug("persisted refreshed token", "access_token", logging.SanitizeToken(tok.AccessToken))
	}
	return tok, nil
}

func (p *TokenProvider) record(ctx context.Context, result string) {
	if p.metrics != nil {
		p.metrics.RecordOAuthTokenRefresh(ctx, result)
	}
}

func (p *TokenProvider) recordAuth(ctx context.Context, result string) {
	if p.metrics != nil {
		p.metrics.RecordOAuthAuth(ctx, result)
	}
}
