package auth

import "errors"

// Sentinel errors for configuration.
var (
	ErrMissingEndpoint = errors.New("auth: endpoint is required")
	ErrMissingStartURL = errors.New("auth: start URL is required")
	ErrNilCache        = errors.New("auth: cache is required")
	ErrNilClient       = errors.New("auth: client is required")
	ErrNilProvider     = errors.New("auth: token provider is required")
)

// Sentinel errors for the device authorization flow.
var (
	// ErrInteractionRequired indicates the flow needs to show the user a
	// verification code but no authorization callback was configured.
	ErrInteractionRequired = errors.New("auth: user interaction required and no authorization callback configured")

	// ErrAuthorizationPending indicates the user has not yet approved the
	// device authorization. Retryable.
	ErrAuthorizationPending = errors.New("auth: authorization pending")

	// ErrSlowDown indicates the service wants polling spaced further apart.
	// Retryable.
	ErrSlowDown = errors.New("auth: polling too fast")

	// ErrAuthorizationExpired indicates the device authorization lapsed
	// before the user approved it.
	ErrAuthorizationExpired = errors.New("auth: device authorization expired")

	// ErrAccessDenied indicates the user declined the authorization.
	ErrAccessDenied = errors.New("auth: access denied by user")

	// ErrMissingExpiry indicates a token response that carries neither an
	// expiresIn field nor a JWT exp claim.
	ErrMissingExpiry = errors.New("auth: token response carries no expiry")
)
