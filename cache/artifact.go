package cache

// ClientRegistration is an OIDC-style client registration issued by the
// device authorization service. Immutable once issued: it is read until
// expired, then invalidated and re-created.
type ClientRegistration struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	ExpiresAt    Instant  `json:"expiresAt"`
	Scopes       []string `json:"scopes,omitempty"`
}

// AccessToken is a bearer token obtained through the device authorization
// flow. A non-empty RefreshToken changes expiration semantics: the token is
// still returned from the cache inside the early-expiry margin because the
// caller can refresh it instead of re-authorizing.
type AccessToken struct {
	StartURL     string   `json:"startUrl"`
	Region       string   `json:"region"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresAt    Instant  `json:"expiresAt"`
	SessionName  string   `json:"sessionName,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

// HasRefreshToken reports whether the token can be refreshed after expiry.
func (t *AccessToken) HasRefreshToken() bool {
	return t.RefreshToken != ""
}
