package cache

import (
	"crypto/sha1" // #nosec G505 -- fingerprints name cache files, not a security boundary.
	"encoding/hex"
	"encoding/json"
	"sort"
)

// DefaultTool is the discriminator injected into registration cache keys and
// legacy file names so tools sharing a cache directory do not collide on each
// other's registrations.
const DefaultTool = "aws-toolkit-go"

// orderIrrelevant marks key fields whose element order carries no meaning.
// Listed fields are sorted during canonicalization so permuted-but-equal keys
// always hash to the same fingerprint. The table is the whole policy: no list
// outside it is ever reordered.
var orderIrrelevant = map[string]bool{
	"scopes": true,
}

// RegistrationKey identifies a cached client registration. The canonical form
// carries no session field, so the same registration is found across
// reconnects within the owning tool.
type RegistrationKey struct {
	StartURL string
	Region   string
	Scopes   []string
}

func (k RegistrationKey) canonical(tool string) string {
	return canonicalJSON(map[string]any{
		"region":   k.Region,
		"scopes":   k.Scopes,
		"startUrl": k.StartURL,
		"tool":     tool,
	})
}

// Fingerprint returns the 40-hex-character identity of the registration's
// cache file for the given owning tool.
func (k RegistrationKey) Fingerprint(tool string) Fingerprint {
	return fingerprintOf(k.canonical(tool))
}

func (k RegistrationKey) fileName(tool string) string {
	return string(k.Fingerprint(tool)) + ".json"
}

// legacyRegistrationFileName is the pre-fingerprint naming scheme, keyed on
// region alone. Kept for lookup in caches written by older releases.
func legacyRegistrationFileName(tool, region string) string {
	return tool + "-client-id-" + region + ".json"
}

// TokenKey identifies a cached access token. SessionName distinguishes
// token sets created for different named sessions against the same start URL.
type TokenKey struct {
	StartURL    string
	Region      string
	SessionName string
	Scopes      []string
}

func (k TokenKey) canonical() string {
	fields := map[string]any{
		"region":   k.Region,
		"scopes":   k.Scopes,
		"startUrl": k.StartURL,
	}
	if k.SessionName != "" {
		fields["sessionName"] = k.SessionName
	}
	return canonicalJSON(fields)
}

// Fingerprint returns the 40-hex-character identity of the token's cache file.
func (k TokenKey) Fingerprint() Fingerprint {
	return fingerprintOf(k.canonical())
}

func (k TokenKey) fileName() string {
	return string(k.Fingerprint()) + ".json"
}

// legacyTokenFileName is the pre-structured-key naming scheme: a bare hash of
// the raw start URL. Kept for lookup in caches written by older releases and
// by companion CLIs that still use it.
func legacyTokenFileName(startURL string) string {
	return string(fingerprintOf(startURL)) + ".json"
}

// Fingerprint is a 40-hex-character digest used as a cache file name;
// effectively the primary key of the on-disk store.
type Fingerprint string

func fingerprintOf(canonical string) Fingerprint {
	// #nosec G401 -- file naming, not a security boundary.
	sum := sha1.Sum([]byte(canonical))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// canonicalJSON serializes key fields as a JSON object with keys in
// lexicographic order, sorting any list field named in orderIrrelevant.
// Two keys equal under "list order does not matter, everything else does"
// produce byte-identical output.
func canonicalJSON(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)

	buf := []byte{'{'}
	for i, n := range names {
		if i > 0 {
			buf = append(buf, ',')
		}
		nb, _ := json.Marshal(n)
		buf = append(buf, nb...)
		buf = append(buf, ':')
		buf = append(buf, canonicalValue(n, fields[n])...)
	}
	buf = append(buf, '}')
	return string(buf)
}

func canonicalValue(name string, v any) []byte {
	switch val := v.(type) {
	case []string:
		elems := val
		if orderIrrelevant[name] {
			elems = append([]string(nil), val...)
			sort.Strings(elems)
		}
		buf := []byte{'['}
		for i, e := range elems {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, _ := json.Marshal(e)
			buf = append(buf, eb...)
		}
		buf = append(buf, ']')
		return buf
	default:
		// Key fields are strings or string lists; anything else falls back
		// to plain encoding. Marshal of these kinds cannot fail.
		b, _ := json.Marshal(v)
		return b
	}
}
