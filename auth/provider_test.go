package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/ssocache/cache"
)

// fakeService is an in-memory device authorization service. It approves a
// pending authorization after pendingPolls token calls.
type fakeService struct {
	mux          *http.ServeMux
	pendingPolls int32
	polls        atomic.Int32
	registers    atomic.Int32
	refreshes    atomic.Int32
}

func newFakeService(pendingPolls int32) *fakeService {
	s := &fakeService{mux: http.NewServeMux(), pendingPolls: pendingPolls}

	s.mux.HandleFunc("/client/register", func(w http.ResponseWriter, r *http.Request) {
		s.registers.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"clientId":              "cid",
			"clientSecret":          "csecret",
			"clientSecretExpiresAt": testNow.Add(90 * 24 * time.Hour).Unix(),
		})
	})

	s.mux.HandleFunc("/device_authorization", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"deviceCode": "dc",
			"userCode":   "ABCD-EFGH",
			"expiresIn":  600,
			"interval":   1,
		})
	})

	s.mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)

		if req["grantType"] == "refresh_token" {
			s.refreshes.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"accessToken":  "at-refreshed",
				"refreshToken": "rt-new",
				"expiresIn":    3600,
			})
			return
		}

		if s.polls.Add(1) <= s.pendingPolls {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "at-fresh",
			"refreshToken": "rt-fresh",
			"expiresIn":    3600,
		})
	})

	return s
}

func newTestProvider(t *testing.T, svc *fakeService, store *cache.MemStore, notify func(context.Context, *DeviceAuthorization) error) *TokenProvider {
	t.Helper()

	client, _ := newTestClient(t, svc.mux)

	cc, err := cache.New(cache.Config{Store: store, Clock: fixedClock})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}

	p, err := NewTokenProvider(ProviderConfig{
		Cache:           cc,
		Client:          client,
		StartURL:        "https://example.awsapps.com/start",
		Region:          "us-east-1",
		Scopes:          []string{"sso:account:access"},
		Clock:           fixedClock,
		OnAuthorization: notify,
	})
	if err != nil {
		t.Fatalf("NewTokenProvider() error = %v", err)
	}
	return p
}

func TestNewTokenProvider_Validation(t *testing.T) {
	cc, _ := cache.New(cache.Config{Store: cache.NewMemStore()})
	client, _ := NewClient(ClientConfig{Endpoint: "https://oidc.example.com"})

	if _, err := NewTokenProvider(ProviderConfig{Client: client, StartURL: "u"}); !errors.Is(err, ErrNilCache) {
		t.Errorf("error = %v, want ErrNilCache", err)
	}
	if _, err := NewTokenProvider(ProviderConfig{Cache: cc, StartURL: "u"}); !errors.Is(err, ErrNilClient) {
		t.Errorf("error = %v, want ErrNilClient", err)
	}
	if _, err := NewTokenProvider(ProviderConfig{Cache: cc, Client: client}); !errors.Is(err, ErrMissingStartURL) {
		t.Errorf("error = %v, want ErrMissingStartURL", err)
	}
}

func TestTokenProvider_FullFlowAndCacheHit(t *testing.T) {
	svc := newFakeService(2)
	store := cache.NewMemStore()

	var notified atomic.Int32
	p := newTestProvider(t, svc, store, func(_ context.Context, auth *DeviceAuthorization) error {
		notified.Add(1)
		if auth.UserCode != "ABCD-EFGH" {
			t.Errorf("unexpected user code %q", auth.UserCode)
		}
		return nil
	})
	ctx := context.Background()

	tok, err := p.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "at-fresh" {
		t.Errorf("token = %q, want at-fresh", tok.AccessToken)
	}
	if tok.StartURL == "" || tok.Region == "" {
		t.Errorf("provider should stamp key fields on the token: %+v", tok)
	}
	if notified.Load() != 1 {
		t.Errorf("user should be shown the code once, got %d", notified.Load())
	}
	if got := svc.polls.Load(); got != 3 {
		t.Errorf("expected 3 polls (2 pending + 1 success), got %d", got)
	}

	// Second call is served from the cache without touching the service.
	before := svc.polls.Load()
	tok2, err := p.Token(ctx)
	if err != nil {
		t.Fatalf("second Token() error = %v", err)
	}
	if tok2.AccessToken != tok.AccessToken {
		t.Errorf("cached token differs: %q vs %q", tok2.AccessToken, tok.AccessToken)
	}
	if svc.polls.Load() != before || notified.Load() != 1 {
		t.Error("a cache hit should not re-run the flow")
	}
}

func TestTokenProvider_RefreshNearExpiry(t *testing.T) {
	svc := newFakeService(0)
	store := cache.NewMemStore()
	p := newTestProvider(t, svc, store, nil)
	ctx := context.Background()

	// Seed the cache with a refreshable token inside the expiry margin and a
	// valid registration so refresh does not need to re-register.
	cc, _ := cache.New(cache.Config{Store: store, Clock: fixedClock})
	regKey := p.registrationKey()
	if err := cc.SaveRegistration(ctx, regKey, &cache.ClientRegistration{
		ClientID:     "cid",
		ClientSecret: "csecret",
		ExpiresAt:    cache.NewInstant(testNow.Add(30 * 24 * time.Hour)),
	}); err != nil {
		t.Fatalf("SaveRegistration() error = %v", err)
	}
	if err := cc.SaveToken(ctx, p.tokenKey(), &cache.AccessToken{
		AccessToken:  "at-stale",
		RefreshToken: "rt-old",
		ExpiresAt:    cache.NewInstant(testNow.Add(5 * time.Minute)),
	}); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	tok, err := p.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "at-refreshed" {
		t.Errorf("token = %q, want at-refreshed", tok.AccessToken)
	}
	if svc.refreshes.Load() != 1 {
		t.Errorf("expected one refresh call, got %d", svc.refreshes.Load())
	}

	// The refreshed token replaced the stale entry.
	got, ok := cc.LoadToken(ctx, p.tokenKey(), "test")
	if !ok || got.AccessToken != "at-refreshed" {
		t.Errorf("refreshed token should be cached, got %+v (ok=%v)", got, ok)
	}
}

func TestTokenProvider_InteractionRequired(t *testing.T) {
	svc := newFakeService(0)
	p := newTestProvider(t, svc, cache.NewMemStore(), nil)

	if _, err := p.Token(context.Background()); !errors.Is(err, ErrInteractionRequired) {
		t.Errorf("error = %v, want ErrInteractionRequired", err)
	}
}

func TestTokenProvider_AccessDenied(t *testing.T) {
	svc := newFakeService(0)
	svc.mux = http.NewServeMux()
	svc.mux.HandleFunc("/client/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"clientId": "cid", "clientSecret": "csecret",
			"clientSecretExpiresAt": testNow.Add(time.Hour).Unix(),
		})
	})
	svc.mux.HandleFunc("/device_authorization", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"deviceCode": "dc", "userCode": "X", "expiresIn": 600, "interval": 1})
	})
	svc.mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "access_denied"})
	})

	p := newTestProvider(t, svc, cache.NewMemStore(), func(context.Context, *DeviceAuthorization) error { return nil })

	if _, err := p.Token(context.Background()); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("error = %v, want ErrAccessDenied", err)
	}
}

func TestTokenProvider_Invalidate(t *testing.T) {
	svc := newFakeService(0)
	store := cache.NewMemStore()
	p := newTestProvider(t, svc, store, func(context.Context, *DeviceAuthorization) error { return nil })
	ctx := context.Background()

	if _, err := p.Token(ctx); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if err := p.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	// Idempotent.
	if err := p.Invalidate(ctx); err != nil {
		t.Fatalf("second Invalidate() error = %v", err)
	}

	cc, _ := cache.New(cache.Config{Store: store, Clock: fixedClock})
	if _, ok := cc.LoadToken(ctx, p.tokenKey(), "test"); ok {
		t.Error("token should be gone after Invalidate")
	}
}

func TestTokenProvider_RegistrationReused(t *testing.T) {
	svc := newFakeService(0)
	store := cache.NewMemStore()
	p := newTestProvider(t, svc, store, func(context.Context, *DeviceAuthorization) error { return nil })
	ctx := context.Background()

	if _, err := p.Token(ctx); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if err := p.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := p.Token(ctx); err != nil {
		t.Fatalf("second Token() error = %v", err)
	}

	if got := svc.registers.Load(); got != 1 {
		t.Errorf("registration should be reused across authorizations, got %d registers", got)
	}
}
