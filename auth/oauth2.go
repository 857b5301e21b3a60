package auth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/jonwraymond/ssocache/cache"
)

// OAuth2Token converts a cached access token for use with
// golang.org/x/oauth2-based clients.
func OAuth2Token(t *cache.AccessToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.ExpiresAt.Time,
	}
}

// TokenSource adapts the provider to oauth2.TokenSource. Each Token call
// goes through the provider, so cached, refreshed and newly authorized
// tokens all flow through the same path.
func (p *TokenProvider) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, p: p}
}

type tokenSource struct {
	ctx context.Context
	p   *TokenProvider
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.p.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	return OAuth2Token(tok), nil
}

// Ensure tokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*tokenSource)(nil)
