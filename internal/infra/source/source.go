// Package source defines the contract every external-provider adapter
// implements, along with the shared HTTP plumbing they use.
//
// An adapter wraps exactly one external API. It acquires a rate-limiter slot
// before calling out, converts any transport error, non-success status, or
// malformed payload into a Result carrying an error descriptor, and never
// lets a provider failure escape as an error to the aggregator above it:
// failure is data, not control flow, at this boundary.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Query describes one location-scoped aggregation request. It is the common
// input to every adapter regardless of category.
type Query struct {
	// Location is the place name ("Pittsburgh").
	Location string

	// Latitude/Longitude are optional coordinates; HasCoords reports
	// whether they were supplied.
	Latitude  float64
	Longitude float64
	HasCoords bool

	// RadiusMiles bounds the search area for providers that support it.
	RadiusMiles int
}

// Signature returns the query's cache-key form: lowercase location plus
// radius, e.g. "pittsburgh:25".
func (q Query) Signature() string {
	return fmt.Sprintf("%s:%d", strings.ToLower(strings.TrimSpace(q.Location)), q.RadiusMiles)
}

// Result is the outcome of one adapter invocation. An adapter always
// returns this shape: on failure Records is empty and Err describes what
// went wrong, on success Err is nil. Both can be meaningfully combined with
// a partially-decoded payload only in one direction — records present means
// the fetch as a whole succeeded even if individual items were dropped.
type Result[T any] struct {
	Records []T
	Err     error
}

// OK wraps a successful record set.
func OK[T any](records []T) Result[T] {
	return Result[T]{Records: records}
}

// Fail wraps an isolated failure with zero records.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Fetcher is the contract every source adapter implements. Name identifies
// the adapter in record Source tags, logs, and metrics.
type Fetcher[T any] interface {
	Name() string
	Fetch(ctx context.Context, q Query) Result[T]
}

// Failure taxonomy. All four classes receive identical handling at the
// adapter boundary: logged, wrapped into a Result, never re-raised.
var (
	// ErrMissingCredential indicates the provider's API key or token is
	// not configured. Adapters degrade to placeholder or empty results.
	ErrMissingCredential = errors.New("provider credential not configured")

	// ErrMalformedPayload indicates the provider responded 2xx but the
	// body could not be decoded into the expected shape.
	ErrMalformedPayload = errors.New("malformed provider payload")
)

// ErrReason classifies an adapter error for metrics labels.
func ErrReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return "bad_status"
		}
		return "transport"
	}
}
