// Package resilience provides retry with configurable backoff. The auth
// package uses it to poll a pending device authorization at the
// service-suggested interval.
package resilience
