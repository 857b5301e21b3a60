package cache

import "time"

// ExpiryThreshold is the safety margin subtracted from an artifact's true
// expiration. Anything lapsing within it is treated as already expired so a
// caller never starts an operation with a credential that expires mid-use.
const ExpiryThreshold = 15 * time.Minute

// Clock supplies the current instant. Injected so expiry decisions are
// deterministic under test; time.Now is the production choice.
type Clock func() time.Time

// ExpiryPolicy decides whether a loaded artifact is still usable.
type ExpiryPolicy struct {
	threshold time.Duration
	now       Clock
}

// NewExpiryPolicy creates a policy with the standard threshold. A nil clock
// means wall-clock time.
func NewExpiryPolicy(clock Clock) ExpiryPolicy {
	if clock == nil {
		clock = time.Now
	}
	return ExpiryPolicy{threshold: ExpiryThreshold, now: clock}
}

// NotExpired reports whether expiresAt clears the early-expiry margin.
func (p ExpiryPolicy) NotExpired(expiresAt time.Time) bool {
	return expiresAt.After(p.now().Add(p.threshold))
}

// RegistrationUsable reports whether a registration should be returned from
// the cache. Registrations have no refresh concept, so the margin applies
// unconditionally.
func (p ExpiryPolicy) RegistrationUsable(r *ClientRegistration) bool {
	return p.NotExpired(r.ExpiresAt.Time)
}

// TokenUsable reports whether an access token should be returned from the
// cache. A token carrying a refresh token passes even inside the expiry
// margin: refreshing it is cheaper than a full re-authorization. Only a
// refreshless token is gated by the margin.
func (p ExpiryPolicy) TokenUsable(t *AccessToken) bool {
	return t.HasRefreshToken() || p.NotExpired(t.ExpiresAt.Time)
}

// DefinitelyExpired reports whether a token is unusable with no recovery
// short of re-authorization.
func (p ExpiryPolicy) DefinitelyExpired(t *AccessToken) bool {
	return !t.HasRefreshToken() && !p.NotExpired(t.ExpiresAt.Time)
}
