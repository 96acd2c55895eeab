// Package bureau implements pendency.Provider for the credit bureaus and
// public registries the service consults.
//
// Every adapter talks to its provider through the shared client, which adds
// client tracing, an optional token bucket, a response size cap and retries
// with exponential backoff on transient failures (network errors, HTTP 429
// and 5xx). Payload types mirror each provider's wire format and are
// exported so the sandbox server can emit the same documents.
package bureau
