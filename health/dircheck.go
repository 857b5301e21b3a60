package health

import (
	"context"
	"os"
	"time"
)

// CacheDirCheck verifies the credential cache directory is usable: present
// or creatable, and writable by this process. A cache that cannot write
// turns every save into a hard failure, so this is worth knowing early.
type CacheDirCheck struct {
	// Dir is the cache directory to probe.
	Dir string
}

// NewCacheDirCheck creates a check for dir.
func NewCacheDirCheck(dir string) *CacheDirCheck {
	return &CacheDirCheck{Dir: dir}
}

// Name returns "cache-dir".
func (c *CacheDirCheck) Name() string {
	return "cache-dir"
}

// Check probes the directory by creating and removing a scratch file.
func (c *CacheDirCheck) Check(ctx context.Context) Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Unhealthy("check cancelled", err).WithDuration(time.Since(start))
	}

	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return Unhealthy("cache directory not creatable", err).WithDuration(time.Since(start))
	}

	f, err := os.CreateTemp(c.Dir, ".healthcheck-*")
	if err != nil {
		return Unhealthy("cache directory not writable", err).WithDuration(time.Since(start))
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Healthy("cache directory writable").WithDuration(time.Since(start))
}

// Ensure CacheDirCheck implements Checker
var _ Checker = (*CacheDirCheck)(nil)
