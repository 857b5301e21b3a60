// Package cache persists SSO client registrations and access tokens under a
// shared on-disk cache directory so they survive process restarts and can be
// reused by cooperating tools.
//
// Entries are content-addressed: a structured key is canonicalized
// (order-irrelevant list fields sorted, object keys serialized in
// lexicographic order) and SHA-1 hashed to produce the cache file name. Reads
// apply a 15-minute early-expiry margin so callers never receive a credential
// about to lapse mid-use. Read failures of any kind surface as a miss; only
// writes and deletes propagate errors.
package cache
