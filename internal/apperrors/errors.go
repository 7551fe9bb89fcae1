/**
 * @description
 * Typed error kinds shared across the sync and query paths.
 * Callers branch on Kind, never on message strings, so the API layer and the
 * orchestrator can tell transient degradation apart from hard failures.
 *
 * @dependencies
 * - standard "errors"
 * - standard "fmt"
 */

package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy decisions.
type Kind int

const (
	// KindInternal is the zero value: an unclassified failure.
	KindInternal Kind = iota
	// KindUpstreamUnavailable: the feed provider cannot be reached. Retryable.
	KindUpstreamUnavailable
	// KindUpstreamRateLimited: the provider returned 429. Retryable after throttling.
	KindUpstreamRateLimited
	// KindUpstreamRejected: auth rejection or malformed provider payload. Not retryable.
	KindUpstreamRejected
	// KindConstraintConflict: a unique-constraint race that persisted through
	// batch retries.
	KindConstraintConflict
	// KindConfigurationMissing: a required credential/setting is absent. Fatal at startup.
	KindConfigurationMissing
	// KindInvalidTimezone: an unknown IANA zone name. The request falls back
	// to the default zone and is annotated, never failed.
	KindInvalidTimezone
	// KindInvalidDate: a malformed date parameter. Rejected: unlike timezones,
	// a garbled date has no safe default to fall back to.
	KindInvalidDate
	// KindNotFound: the requested entity does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamRateLimited:
		return "upstream_rate_limited"
	case KindUpstreamRejected:
		return "upstream_rejected"
	case KindConstraintConflict:
		return "constraint_conflict"
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindInvalidTimezone:
		return "invalid_timezone"
	case KindInvalidDate:
		return "invalid_date"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a kind, the operation that failed, and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a format string.
func Errorf(kind Kind, op, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, v...)}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether a sync pass may retry the failed call.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindUpstreamUnavailable, KindUpstreamRateLimited:
		return true
	default:
		return false
	}
}
