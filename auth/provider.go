package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/ssocache/cache"
	"github.com/jonwraymond/ssocache/observe"
	"github.com/jonwraymond/ssocache/resilience"
)

// DefaultClientName is the client name used when registering with the
// service unless overridden.
const DefaultClientName = "ssocache"

// providerSource tags cache diagnostics emitted on the provider's behalf.
const providerSource = "tokenProvider"

// defaultPollInterval applies when the service does not suggest one.
const defaultPollInterval = 5 * time.Second

// ProviderConfig configures a TokenProvider.
type ProviderConfig struct {
	// Cache is the credential cache. Required.
	Cache *cache.Cache

	// Client talks to the device authorization service. Required.
	Client *Client

	// StartURL identifies the SSO instance. Required.
	StartURL string

	// Region is the service region, recorded on cached tokens.
	Region string

	// SessionName distinguishes token sets for different named sessions
	// against the same start URL. Optional.
	SessionName string

	// Scopes requested during registration and recorded on cached tokens.
	Scopes []string

	// ClientName is the name used for client registration.
	// Default: DefaultClientName.
	ClientName string

	// Clock overrides the expiry clock. Default: time.Now.
	Clock cache.Clock

	// Logger receives informational traces. Default: noop.
	Logger observe.Logger

	// Middleware, when set, instruments Token calls with tracing and
	// metrics.
	Middleware *observe.Middleware

	// OnAuthorization presents a pending device authorization (user code,
	// verification URI) to the user. When nil, Token fails with
	// ErrInteractionRequired instead of starting an interactive flow.
	OnAuthorization func(ctx context.Context, auth *DeviceAuthorization) error
}

// TokenProvider returns usable access tokens: cached first, refreshed when
// possible, obtained through a full device authorization flow as a last
// resort. Concurrent callers share a single in-flight flow per start URL.
type TokenProvider struct {
	cache       *cache.Cache
	client      *Client
	startURL    string
	region      string
	sessionName string
	scopes      []string
	clientName  string
	policy      cache.ExpiryPolicy
	log         observe.Logger
	mw          *observe.Middleware
	notify      func(ctx context.Context, auth *DeviceAuthorization) error

	group singleflight.Group
}

// NewTokenProvider creates a TokenProvider from cfg.
func NewTokenProvider(cfg ProviderConfig) (*TokenProvider, error) {
	if cfg.Cache == nil {
		return nil, ErrNilCache
	}
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.StartURL == "" {
		return nil, ErrMissingStartURL
	}
	clientName := cfg.ClientName
	if clientName == "" {
		clientName = DefaultClientName
	}
	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	return &TokenProvider{
		cache:       cfg.Cache,
		client:      cfg.Client,
		startURL:    cfg.StartURL,
		region:      cfg.Region,
		sessionName: cfg.SessionName,
		scopes:      cfg.Scopes,
		clientName:  clientName,
		policy:      cache.NewExpiryPolicy(cfg.Clock),
		log:         log,
		mw:          cfg.Middleware,
		notify:      cfg.OnAuthorization,
	}, nil
}

func (p *TokenProvider) tokenKey() cache.TokenKey {
	return cache.TokenKey{
		StartURL:    p.startURL,
		Region:      p.region,
		SessionName: p.sessionName,
		Scopes:      p.scopes,
	}
}

func (p *TokenProvider) registrationKey() cache.RegistrationKey {
	return cache.RegistrationKey{
		StartURL: p.startURL,
		Region:   p.region,
		Scopes:   p.scopes,
	}
}

// Token returns a usable access token. Concurrent callers are deduplicated:
// only one flow runs per start URL and every waiter receives its result.
func (p *TokenProvider) Token(ctx context.Context) (*cache.AccessToken, error) {
	v, err, _ := p.group.Do(p.startURL, func() (any, error) {
		var tok *cache.AccessToken
		op := func(ctx context.Context) error {
			var err error
			tok, err = p.token(ctx)
			return err
		}
		if p.mw != nil {
			op = p.mw.Wrap(observe.OpMeta{Op: "provider.token", Source: providerSource}, op)
		}
		if err := op(ctx); err != nil {
			return nil, err
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.AccessToken), nil
}

func (p *TokenProvider) token(ctx context.Context) (*cache.AccessToken, error) {
	if tok, ok := p.cache.LoadToken(ctx, p.tokenKey(), providerSource); ok {
		if p.policy.NotExpired(tok.ExpiresAt.Time) {
			return tok, nil
		}
		// Inside the expiry margin but refreshable.
		refreshed, err := p.refresh(ctx, tok)
		if err == nil {
			return refreshed, nil
		}
		p.log.Warn(ctx, "token refresh failed, re-authorizing",
			observe.Field{Key: "error", Value: observe.Scrub(err.Error())})
	}
	return p.authorize(ctx)
}

// refresh exchanges a near-expiry token and saves the replacement.
func (p *TokenProvider) refresh(ctx context.Context, tok *cache.AccessToken) (*cache.AccessToken, error) {
	reg, err := p.registration(ctx)
	if err != nil {
		return nil, err
	}
	refreshed, err := p.client.RefreshToken(ctx, reg, tok)
	if err != nil {
		return nil, err
	}
	p.stamp(refreshed)
	if err := p.cache.SaveToken(ctx, p.tokenKey(), refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// registration returns a usable client registration, registering and caching
// a new one when none is found.
func (p *TokenProvider) registration(ctx context.Context) (*cache.ClientRegistration, error) {
	key := p.registrationKey()
	if reg, ok := p.cache.LoadRegistration(ctx, key, providerSource); ok {
		return reg, nil
	}
	reg, err := p.client.RegisterClient(ctx, p.clientName, p.scopes)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SaveRegistration(ctx, key, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// authorize runs the full interactive device authorization flow.
func (p *TokenProvider) authorize(ctx context.Context) (*cache.AccessToken, error) {
	if p.notify == nil {
		return nil, ErrInteractionRequired
	}
	reg, err := p.registration(ctx)
	if err != nil {
		return nil, err
	}
	auth, err := p.client.StartDeviceAuthorization(ctx, reg, p.startURL)
	if err != nil {
		return nil, err
	}
	if err := p.notify(ctx, auth); err != nil {
		return nil, err
	}
	tok, err := p.poll(ctx, reg, auth)
	if err != nil {
		return nil, err
	}
	p.stamp(tok)
	if err := p.cache.SaveToken(ctx, p.tokenKey(), tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// poll retries CreateToken at the service-suggested interval until the user
// acts or the authorization lapses.
func (p *TokenProvider) poll(ctx context.Context, reg *cache.ClientRegistration, auth *DeviceAuthorization) (*cache.AccessToken, error) {
	interval := time.Duration(auth.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	attempts := 1
	if auth.ExpiresIn > 0 {
		attempts += auth.ExpiresIn / int(interval.Seconds())
	}

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: interval,
		Strategy:     resilience.BackoffConstant,
		Jitter:       false,
		RetryIf: func(err error) bool {
			return errors.Is(err, ErrAuthorizationPending) || errors.Is(err, ErrSlowDown)
		},
	})

	var tok *cache.AccessToken
	err := retry.Execute(ctx, func(ctx context.Context) error {
		t, err := p.client.CreateToken(ctx, reg, auth)
		if err != nil {
			return err
		}
		tok = t
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAuthorizationPending) || errors.Is(err, ErrSlowDown) {
			return nil, ErrAuthorizationExpired
		}
		return nil, err
	}
	return tok, nil
}

// stamp fills the key fields on a freshly obtained token before caching.
func (p *TokenProvider) stamp(tok *cache.AccessToken) {
	tok.StartURL = p.startURL
	tok.Region = p.region
	tok.SessionName = p.sessionName
	tok.Scopes = p.scopes
}

// Invalidate drops the cached token so the next Token call re-authorizes.
func (p *TokenProvider) Invalidate(ctx context.Context) error {
	return p.cache.InvalidateToken(ctx, p.tokenKey())
}

// InvalidateRegistration drops the cached client registration.
func (p *TokenProvider) InvalidateRegistration(ctx context.Context) error {
	return p.cache.InvalidateRegistration(ctx, p.registrationKey())
}
