// Package observe provides observability for credential operations: an
// OpenTelemetry-backed Observer (tracer, meter, structured logger) and the
// diagnostic sink the credential cache reports failure events to.
//
// Diagnostic details are scrubbed of filesystem paths and account-ID-like
// digit runs before they leave the process.
package observe
