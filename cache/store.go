package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store maps cache file names to their bytes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use. Other
//   processes may touch the same entries; last writer wins.
// - Errors: Read returns (nil, false, nil) when the entry is absent.
//   Delete is idempotent and succeeds when the entry is already gone.
type Store interface {
	Read(name string) ([]byte, bool, error)
	Write(name string, data []byte) error
	Delete(name string) error
}

// DefaultCacheDir returns the cache directory shared with companion CLIs:
// ~/.aws/sso/cache.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".aws", "sso", "cache"), nil
}

// DiskStore keeps entries as files under a single directory, one file per
// fingerprint. No handle escapes a method call.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a store rooted at dir. The directory is created on
// first write, not here.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the directory the store writes under.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// validateName rejects names that would resolve outside the cache directory.
func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

// Read returns the entry's bytes, or (nil, false, nil) when absent.
func (s *DiskStore) Read(name string) ([]byte, bool, error) {
	if err := validateName(name); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read entry %s: %w", name, err)
	}
	return data, true, nil
}

// Write lands the payload at the target path only after it has been fully
// written: the bytes go to an owner-only temp file in the same directory,
// then rename. A concurrent reader observes either the prior state or the
// complete new entry, never a partial write.
func (s *DiskStore) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("cache: create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: restrict entry permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: flush entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("cache: publish entry: %w", err)
	}
	return nil
}

// Delete removes the entry. Idempotent - no error when already absent.
func (s *DiskStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: delete entry %s: %w", name, err)
	}
	return nil
}

// Ensure DiskStore implements Store
var _ Store = (*DiskStore)(nil)
