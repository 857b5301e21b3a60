package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/ssocache/cache"
)

func TestOAuth2Token(t *testing.T) {
	src := &cache.AccessToken{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    cache.NewInstant(testNow.Add(time.Hour)),
	}

	got := OAuth2Token(src)
	if got.AccessToken != "at" || got.RefreshToken != "rt" {
		t.Errorf("unexpected conversion: %+v", got)
	}
	if got.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", got.TokenType)
	}
	if !got.Expiry.Equal(testNow.Add(time.Hour)) {
		t.Errorf("Expiry = %v, want %v", got.Expiry, testNow.Add(time.Hour))
	}
}

func TestTokenSource(t *testing.T) {
	svc := newFakeService(0)
	p := newTestProvider(t, svc, cache.NewMemStore(), func(context.Context, *DeviceAuthorization) error { return nil })

	ts := p.TokenSource(context.Background())
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "at-fresh" {
		t.Errorf("AccessToken = %q, want at-fresh", tok.AccessToken)
	}
	if !tok.Valid() {
		t.Error("an hour-long token should be valid")
	}
}
