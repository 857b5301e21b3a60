package cache

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ssocache/observe"
)

// Config configures a Cache. The zero value is usable: entries go to the
// default shared directory under the default tool discriminator, with
// wall-clock expiry and no diagnostics.
type Config struct {
	// Dir is the cache directory. Empty means DefaultCacheDir().
	Dir string

	// Tool discriminates registrations between tools sharing Dir.
	// Default: DefaultTool.
	Tool string

	// Clock overrides the expiry clock. Default: time.Now.
	Clock Clock

	// Diagnostics receives one event per failed cache stage. Default: noop.
	Diagnostics observe.DiagnosticSink

	// Logger receives informational traces. Default: noop.
	Logger observe.Logger

	// Store overrides the backing store. Nil means a DiskStore at Dir.
	Store Store
}

// Cache is the credential cache façade: load, save and invalidate for the
// two artifact kinds. Load never raises; anything that prevents returning a
// usable artifact surfaces as a miss plus a diagnostic event. Save and
// invalidate propagate their failures because the caller has no fallback.
//
// Contract:
//   - Concurrency: safe for concurrent use from multiple goroutines and
//     processes; the filesystem is the serialization point and last writer
//     wins on concurrent saves of the same fingerprint.
//   - Context: operations are synchronous filesystem calls; callers apply
//     their own timeout around the authorization flow that invokes them.
type Cache struct {
	store  Store
	tool   string
	policy ExpiryPolicy
	diags  observe.DiagnosticSink
	log    observe.Logger
}

// New creates a Cache from cfg.
func New(cfg Config) (*Cache, error) {
	store := cfg.Store
	if store == nil {
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		store = NewDiskStore(dir)
	}
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultTool
	}
	diags := cfg.Diagnostics
	if diags == nil {
		diags = observe.NopDiagnostics()
	}
	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	return &Cache{
		store:  store,
		tool:   tool,
		policy: NewExpiryPolicy(cfg.Clock),
		diags:  diags,
		log:    log,
	}, nil
}

// Policy returns the expiry policy the cache gates reads with.
func (c *Cache) Policy() ExpiryPolicy {
	return c.policy
}

// LoadRegistration returns the cached registration for key, or false when no
// usable one exists. The structured fingerprint is tried first, then the
// legacy region-only name. Source tags the requesting component in
// diagnostics.
func (c *Cache) LoadRegistration(ctx context.Context, key RegistrationKey, source string) (*ClientRegistration, bool) {
	for _, name := range c.registrationNames(key) {
		data, ok := c.readEntry(ctx, ActionLoadRegistration, source, name)
		if !ok {
			continue
		}
		reg, err := decodeRegistration(data)
		if err != nil {
			c.report(ctx, ActionLoadRegistration, source, ReasonParse, err)
			continue
		}
		if !c.policy.RegistrationUsable(reg) {
			c.report(ctx, ActionLoadRegistration, source, ReasonExpired, nil)
			continue
		}
		return reg, true
	}
	return nil, false
}

// SaveRegistration persists reg under key's structured fingerprint.
func (c *Cache) SaveRegistration(ctx context.Context, key RegistrationKey, reg *ClientRegistration) error {
	data, err := encodeRegistration(reg)
	if err == nil {
		err = c.store.Write(key.fileName(c.tool), data)
	}
	if err != nil {
		c.report(ctx, ActionSaveRegistration, "", ReasonFileAccess, err)
		return fmt.Errorf("cache: save client registration: %w", err)
	}
	c.log.Debug(ctx, "cached client registration",
		observe.Field{Key: "fingerprint", Value: string(key.Fingerprint(c.tool))})
	return nil
}

// InvalidateRegistration deletes key's cache entry, including any legacy
// file. Succeeds when nothing existed; a filesystem fault is reported and
// returned.
func (c *Cache) InvalidateRegistration(ctx context.Context, key RegistrationKey) error {
	for _, name := range c.registrationNames(key) {
		if err := c.store.Delete(name); err != nil {
			c.report(ctx, ActionInvalidateRegistration, "", ReasonFileAccess, err)
			return fmt.Errorf("cache: invalidate client registration: %w", err)
		}
	}
	return nil
}

// LoadToken returns the cached access token for key, or false when no usable
// one exists. A refreshable token is returned even inside the expiry margin;
// see ExpiryPolicy.TokenUsable.
func (c *Cache) LoadToken(ctx context.Context, key TokenKey, source string) (*AccessToken, bool) {
	for _, name := range c.tokenNames(key) {
		data, ok := c.readEntry(ctx, ActionLoadToken, source, name)
		if !ok {
			continue
		}
		tok, err := decodeToken(data)
		if err != nil {
			c.report(ctx, ActionLoadToken, source, ReasonParse, err)
			continue
		}
		if !c.policy.TokenUsable(tok) {
			c.report(ctx, ActionLoadToken, source, ReasonExpired, nil)
			continue
		}
		return tok, true
	}
	return nil, false
}

// SaveToken persists tok under key's structured fingerprint.
func (c *Cache) SaveToken(ctx context.Context, key TokenKey, tok *AccessToken) error {
	data, err := encodeToken(tok)
	if err == nil {
		err = c.store.Write(key.fileName(), data)
	}
	if err != nil {
		c.report(ctx, ActionSaveToken, "", ReasonFileAccess, err)
		return fmt.Errorf("cache: save access token: %w", err)
	}
	c.log.Debug(ctx, "cached access token",
		observe.Field{Key: "fingerprint", Value: string(key.Fingerprint())})
	return nil
}

// InvalidateToken deletes key's cache entry, including the legacy raw-URL
// file, so a follow-up load re-runs the authorization flow.
func (c *Cache) InvalidateToken(ctx context.Context, key TokenKey) error {
	for _, name := range c.tokenNames(key) {
		if err := c.store.Delete(name); err != nil {
			c.report(ctx, ActionInvalidateToken, "", ReasonFileAccess, err)
			return fmt.Errorf("cache: invalidate access token: %w", err)
		}
	}
	return nil
}

// registrationNames lists candidate file names in read-precedence order:
// structured fingerprint first, then the legacy region-only scheme.
func (c *Cache) registrationNames(key RegistrationKey) []string {
	names := []string{key.fileName(c.tool)}
	if key.Region != "" {
		names = append(names, legacyRegistrationFileName(c.tool, key.Region))
	}
	return names
}

// tokenNames lists candidate file names in read-precedence order: structured
// fingerprint first, then the legacy raw-URL hash.
func (c *Cache) tokenNames(key TokenKey) []string {
	names := []string{key.fileName()}
	if key.StartURL != "" {
		names = append(names, legacyTokenFileName(key.StartURL))
	}
	return names
}

// readEntry reads one candidate file. Absence is silent; an I/O fault is
// reported as a diagnostic and treated as a miss.
func (c *Cache) readEntry(ctx context.Context, action, source, name string) ([]byte, bool) {
	data, ok, err := c.store.Read(name)
	if err != nil {
		c.report(ctx, action, source, ReasonFileAccess, err)
		return nil, false
	}
	return data, ok
}

func (c *Cache) report(ctx context.Context, action, source, reason string, err error) {
	detail := ""
	if err != nil {
		detail = observe.Scrub(err.Error())
	}
	c.diags.Record(ctx, observe.Diagnostic{
		Action:       action,
		Source:       source,
		Result:       observe.ResultFailed,
		Reason:       reason,
		ReasonDetail: detail,
	})
}
