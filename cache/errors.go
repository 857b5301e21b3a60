package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNilCache indicates a method was called on a nil Cache.
	ErrNilCache = errors.New("cache: cache is nil")

	// ErrInvalidName indicates a cache file name that could escape the
	// cache directory or is otherwise unusable.
	ErrInvalidName = errors.New("cache: file name is invalid")

	// ErrCorrupt indicates a cache entry whose contents could not be parsed.
	ErrCorrupt = errors.New("cache: entry is corrupt")

	// ErrMissingField indicates a structurally valid entry that lacks a
	// required attribute.
	ErrMissingField = errors.New("cache: entry is missing a required field")

	// ErrBadInstant indicates a timestamp that could not be parsed as an
	// ISO-8601 instant.
	ErrBadInstant = errors.New("cache: timestamp is malformed")
)

// Diagnostic reasons reported to the diagnostic sink, one per read stage that
// can turn a structurally present entry into a miss.
const (
	ReasonFileAccess = "file access failure"
	ReasonParse      = "parse failure"
	ReasonExpired    = "expired"
)

// Diagnostic action names for cache operations.
const (
	ActionLoadRegistration       = "loadRegistration"
	ActionSaveRegistration       = "saveRegistration"
	ActionInvalidateRegistration = "invalidateRegistration"
	ActionLoadToken              = "loadToken"
	ActionSaveToken              = "saveToken"
	ActionInvalidateToken        = "invalidateToken"
)
