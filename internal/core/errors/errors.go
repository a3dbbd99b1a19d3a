// Package errors provides centralized error definitions for the application.
// Errors are organized by the failure taxonomy of the recommendation pipeline.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Fatal request errors. These abort a request and reach the caller.
var (
	// ErrInvalidRequest indicates a missing or malformed required input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstreamConfiguration indicates credentials for an external service are absent.
	ErrUpstreamConfiguration = errors.New("upstream service is not configured")

	// ErrDraftGeneration indicates recommendation drafts could not be generated or decoded.
	ErrDraftGeneration = errors.New("draft generation failed")

	// ErrRequestTimeout indicates the overall request deadline expired.
	ErrRequestTimeout = errors.New("request timed out")
)

// Recoverable errors. These degrade one recommendation's citations only.
var (
	// ErrSearchUnavailable indicates the literature search failed or matched nothing.
	ErrSearchUnavailable = errors.New("literature search unavailable")

	// ErrNoMatches indicates a literature search matched no records. It is
	// always wrapped together with ErrSearchUnavailable.
	ErrNoMatches = errors.New("no matching records")

	// ErrMetadataParse indicates the fetched metadata yielded no usable records.
	ErrMetadataParse = errors.New("citation metadata yielded no records")

	// ErrFilterFailure indicates the relevance filter failed or returned unusable output.
	ErrFilterFailure = errors.New("relevance filter failed")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedStatus indicates a non-2xx HTTP status from an upstream service.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Rate limiting errors.
var (
	// ErrTooManyRequests indicates a client exceeded its request rate.
	ErrTooManyRequests = errors.New("too many requests")
)

// Cache errors.
var (
	// ErrCacheNotFound indicates a cache entry was not found or is stale.
	ErrCacheNotFound = errors.New("cache entry not found")
)

// Fatal reports whether err aborts a request.
func Fatal(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUpstreamConfiguration) ||
		errors.Is(err, ErrDraftGeneration) ||
		errors.Is(err, ErrRequestTimeout)
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
