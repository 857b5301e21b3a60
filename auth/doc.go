// Package auth obtains SSO access tokens through the OIDC device
// authorization flow and keeps them in the on-disk credential cache.
//
// TokenProvider is the entry point: it consults the cache, refreshes a
// near-expiry token when a refresh token is available, and only falls back to
// a full interactive authorization when nothing usable remains. Transport
// adapts a provider into an http.RoundTripper for bearer-authenticated
// clients.
package auth
