package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a failed request into one of the taxonomy categories used
// by the retry policy. Retry decisions compare kinds as plain data.
type Kind string

const (
	// KindConnection covers transport-level failures that occur before a
	// response is obtained: DNS resolution, TLS handshake, socket resets,
	// timeouts.
	KindConnection Kind = "connection"

	// KindClient covers HTTP 400-499 responses. The request itself is
	// malformed or unauthorized; replaying it cannot succeed.
	KindClient Kind = "client"

	// KindServer covers HTTP 500-599 responses and any other status outside
	// the success range. The remote is transiently unhealthy.
	KindServer Kind = "server"
)

// Error represents a classified request failure.
type Error struct {
	Kind       Kind
	StatusCode int // zero for transport-level failures
	Message    string
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("kvault: %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kvault: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a non-success HTTP status code to its Kind. The 4xx range is
// a client fault; every other status that reaches classification (5xx, plus
// anything outside the 200-399 success range) is a server fault.
// Classification is total: any (status, transport error) outcome maps to
// exactly one Kind.
func Classify(statusCode int) Kind {
	if statusCode >= 400 && statusCode < 500 {
		return KindClient
	}
	return KindServer
}

// FromResponse builds a classified error from a non-success HTTP response.
func FromResponse(statusCode int, body []byte) *Error {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = "empty response body"
	}
	return &Error{
		Kind:       Classify(statusCode),
		StatusCode: statusCode,
		Message:    message,
	}
}

// FromTransport wraps a failure that occurred before a response was obtained.
func FromTransport(err error) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: err.Error(),
		Err:     err,
	}
}

// KindOf extracts the classified kind from err. It returns the empty kind
// when err carries no classification.
func KindOf(err error) Kind {
	var cerr *Error
	if stderrors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

// IsRetryable reports whether an error kind is eligible for re-attempt under
// the default policy. Connection and server faults are transient; client
// faults never change on replay.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindConnection, KindServer:
		return true
	default:
		return false
	}
}

// ValidKind reports whether name is a recognized error kind. Used when
// validating retryable-error lists from configuration.
func ValidKind(name string) bool {
	switch Kind(name) {
	case KindConnection, KindClient, KindServer:
		return true
	default:
		return false
	}
}
