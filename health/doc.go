// Package health provides health checks for the credential cache, chiefly a
// probe that verifies the cache directory is present and writable before an
// authorization flow depends on it.
package health
