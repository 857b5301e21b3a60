package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/ssocache/cache"
)

// ClientConfig configures a device authorization Client.
type ClientConfig struct {
	// Endpoint is the base URL of the regional device authorization
	// service, e.g. "https://oidc.us-east-1.amazonaws.com".
	Endpoint string

	// HTTPClient overrides the HTTP client. Default: 30-second timeout.
	HTTPClient *http.Client

	// Clock overrides the clock used to derive absolute expiry from
	// relative expiresIn fields. Default: time.Now.
	Clock cache.Clock
}

// Client talks to the OIDC device authorization service: client
// registration, device authorization start, token creation and refresh.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: every call honors cancellation through the request context.
type Client struct {
	hc       *http.Client
	endpoint string
	now      cache.Clock
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Client{hc: hc, endpoint: cfg.Endpoint, now: now}, nil
}

type registerClientRequest struct {
	ClientName string   `json:"clientName"`
	ClientType string   `json:"clientType"`
	Scopes     []string `json:"scopes,omitempty"`
}

type registerClientResponse struct {
	ClientID              string `json:"clientId"`
	ClientSecret          string `json:"clientSecret"`
	ClientSecretExpiresAt int64  `json:"clientSecretExpiresAt"` // epoch seconds
}

// RegisterClient registers a public client with the service and returns the
// registration artifact ready for caching.
func (c *Client) RegisterClient(ctx context.Context, name string, scopes []string) (*cache.ClientRegistration, error) {
	var resp registerClientResponse
	err := c.post(ctx, "/client/register", registerClientRequest{
		ClientName: name,
		ClientType: "public",
		Scopes:     scopes,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("auth: register client: %w", err)
	}
	return &cache.ClientRegistration{
		ClientID:     resp.ClientID,
		ClientSecret: resp.ClientSecret,
		ExpiresAt:    cache.NewInstant(time.Unix(resp.ClientSecretExpiresAt, 0)),
		Scopes:       scopes,
	}, nil
}

// DeviceAuthorization is the in-flight state of one device authorization:
// the code the user must confirm and the polling parameters.
type DeviceAuthorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"` // seconds
	Interval                int    `json:"interval"`  // seconds between polls
}

type startDeviceAuthorizationRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	StartURL     string `json:"startUrl"`
}

// StartDeviceAuthorization begins a device authorization for startURL.
func (c *Client) StartDeviceAuthorization(ctx context.Context, reg *cache.ClientRegistration, startURL string) (*DeviceAuthorization, error) {
	var auth DeviceAuthorization
	err := c.post(ctx, "/device_authorization", startDeviceAuthorizationRequest{
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		StartURL:     startURL,
	}, &auth)
	if err != nil {
		return nil, fmt.Errorf("auth: start device authorization: %w", err)
	}
	return &auth, nil
}

type createTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	GrantType    string `json:"grantType"`
	DeviceCode   string `json:"deviceCode,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type createTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}

// CreateToken performs one token poll for a pending device authorization.
// While the user has not acted yet it returns ErrAuthorizationPending or
// ErrSlowDown; both are retryable.
func (c *Client) CreateToken(ctx context.Context, reg *cache.ClientRegistration, auth *DeviceAuthorization) (*cache.AccessToken, error) {
	var resp createTokenResponse
	err := c.post(ctx, "/token", createTokenRequest{
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		GrantType:    "urn:ietf:params:oauth:grant-type:device_code",
		DeviceCode:   auth.DeviceCode,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.tokenFrom(resp)
}

// RefreshToken exchanges tok's refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, reg *cache.ClientRegistration, tok *cache.AccessToken) (*cache.AccessToken, error) {
	var resp createTokenResponse
	err := c.post(ctx, "/token", createTokenRequest{
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		GrantType:    "refresh_token",
		RefreshToken: tok.RefreshToken,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("auth: refresh token: %w", err)
	}
	return c.tokenFrom(resp)
}

// tokenFrom derives the absolute expiry: expiresIn when present, otherwise
// the exp claim of a JWT-shaped access token.
func (c *Client) tokenFrom(resp createTokenResponse) (*cache.AccessToken, error) {
	var expiresAt time.Time
	switch {
	case resp.ExpiresIn > 0:
		expiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	default:
		exp, ok := tokenExpiry(resp.AccessToken)
		if !ok {
			return nil, ErrMissingExpiry
		}
		expiresAt = exp
	}
	return &cache.AccessToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    cache.NewInstant(expiresAt),
	}, nil
}

// apiError is the service's error envelope.
type apiError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *apiError) Err() error {
	switch e.Code {
	case "authorization_pending":
		return ErrAuthorizationPending
	case "slow_down":
		return ErrSlowDown
	case "expired_token":
		return ErrAuthorizationExpired
	case "access_denied":
		return ErrAccessDenied
	default:
		return fmt.Errorf("auth: service error %q: %s", e.Code, e.Description)
	}
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("call service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			return apiErr.Err()
		}
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
