package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Instant is a UTC timestamp serialized as an ISO-8601 instant
// ("2024-01-02T03:04:05Z"). Decoding additionally accepts a trailing literal
// "UTC" where a strict parser requires "Z": companion CLIs have historically
// written that form.
type Instant struct {
	time.Time
}

// NewInstant wraps t, normalized to UTC.
func NewInstant(t time.Time) Instant {
	return Instant{t.UTC()}
}

// MarshalJSON encodes the instant as an ISO-8601 string in UTC.
func (i Instant) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.UTC().Format(time.RFC3339))
}

// UnmarshalJSON decodes an ISO-8601 string, tolerating the legacy "UTC"
// suffix.
func (i *Instant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrBadInstant, err)
	}
	t, err := ParseInstant(s)
	if err != nil {
		return err
	}
	i.Time = t
	return nil
}

// ParseInstant parses an ISO-8601 instant. A trailing literal "UTC" is
// rewritten to the standard zero-offset designator before parsing, so
// "2024-01-02T03:04:05UTC" and "2024-01-02T03:04:05Z" denote the same
// instant.
func ParseInstant(s string) (time.Time, error) {
	if strings.HasSuffix(s, "UTC") {
		s = strings.TrimSuffix(s, "UTC") + "Z"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadInstant, s)
	}
	return t.UTC(), nil
}

// The codec tolerates unknown fields on decode so entries written by newer
// releases or companion CLIs still parse. Any decode failure wraps ErrCorrupt
// or ErrMissingField; the façade maps both to a miss rather than raising.

func encodeRegistration(r *ClientRegistration) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("cache: encode client registration: %w", err)
	}
	return data, nil
}

func decodeRegistration(data []byte) (*ClientRegistration, error) {
	var r ClientRegistration
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: client registration: %v", ErrCorrupt, err)
	}
	if r.ClientID == "" || r.ClientSecret == "" || r.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: client registration", ErrMissingField)
	}
	return &r, nil
}

func encodeToken(t *AccessToken) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("cache: encode access token: %w", err)
	}
	return data, nil
}

func decodeToken(data []byte) (*AccessToken, error) {
	var t AccessToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrCorrupt, err)
	}
	if t.AccessToken == "" || t.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: access token", ErrMissingField)
	}
	return &t, nil
}
