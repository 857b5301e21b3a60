package auth

import (
	"net/http"

	"github.com/jonwraymond/ssocache/observe"
)

// Transport is an http.RoundTripper that attaches the provider's bearer
// token to outgoing requests and invalidates the cached token when the
// server rejects it, so the next request re-authorizes.
//
// Usage:
//
//	client := &http.Client{Transport: &auth.Transport{Provider: provider}}
type Transport struct {
	// Base is the underlying round tripper. Nil means http.DefaultTransport.
	Base http.RoundTripper

	// Provider supplies the bearer token. Required.
	Provider *TokenProvider
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Provider == nil {
		return nil, ErrNilProvider
	}

	tok, err := t.Provider.Token(req.Context())
	if err != nil {
		return nil, err
	}

	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if ierr := t.Provider.Invalidate(req.Context()); ierr != nil {
			t.Provider.log.Warn(req.Context(), "failed to invalidate rejected token",
				observe.Field{Key: "error", Value: observe.Scrub(ierr.Error())})
		}
	}
	return resp, nil
}
