package helpers

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
//
// Every failure the acquisition pipeline can surface is one of these. The
// server layer maps them onto the wire taxonomy (ValidationError /
// RateLimitError / FetchError); inside the pipeline the distinct types let
// callers tell "never connected" from "connected but venue silent" from
// "venue said no".
// -----------------------------------------------------------------------------

type ChartBridgeError struct {
	Message string
	Cause   error
}

func (e *ChartBridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChartBridgeError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// ValidationError: malformed caller input. Never retried.
type ValidationError struct{ ChartBridgeError }

// AuthenticationError: the venue rejected the credentials. Not retried
// automatically.
type AuthenticationError struct{ ChartBridgeError }

// ExpiredCredentialError: the specific expiry signal that triggers the
// shared token refresh. Distinct from AuthenticationError so a plain 401
// never causes a refresh storm.
type ExpiredCredentialError struct{ ChartBridgeError }

// ProtocolError: malformed or unexpected frame/body at any phase. Fatal to
// the session.
type ProtocolError struct{ ChartBridgeError }

// EmptyResultError: the venue closed cleanly with zero bars. Distinct from a
// timeout because the venue explicitly closed rather than going silent.
type EmptyResultError struct{ ChartBridgeError }

// CancelledError: the caller aborted the session mid-flight.
type CancelledError struct{ ChartBridgeError }

// FetchError: transport-level failure that fits no narrower type.
type FetchError struct{ ChartBridgeError }

// -----------------------------------------------------------------------------

// RateLimitError carries enough metadata for a UI countdown.
type RateLimitError struct {
	ChartBridgeError
	RetryAfterSeconds int
	RetryAt           time.Time
}

// NewRateLimitError applies the fallback window when the venue gave no
// explicit retry hint.
func NewRateLimitError(message string, retryAfterSeconds int) *RateLimitError {
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = DefaultRetryAfterSeconds
	}
	return &RateLimitError{
		ChartBridgeError:  ChartBridgeError{Message: message},
		RetryAfterSeconds: retryAfterSeconds,
		RetryAt:           time.Now().UTC().Add(time.Duration(retryAfterSeconds) * time.Second),
	}
}

// DefaultRetryAfterSeconds is used when the venue signals throttling without
// a retry hint.
const DefaultRetryAfterSeconds = 300

// -----------------------------------------------------------------------------
// Phase Timeouts
// -----------------------------------------------------------------------------

// ConnectionTimeoutError: the connect/handshake phase budget elapsed.
type ConnectionTimeoutError struct{ ChartBridgeError }

// AuthTimeoutError: the venue never answered the authorize frame.
type AuthTimeoutError struct{ ChartBridgeError }

// DataRequestTimeoutError: the venue went silent after the data request.
type DataRequestTimeoutError struct{ ChartBridgeError }

// -----------------------------------------------------------------------------
// Classification helpers
// -----------------------------------------------------------------------------

func IsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsExpiredCredential(err error) bool {
	var ee *ExpiredCredentialError
	return errors.As(err, &ee)
}

// Kind returns the machine-readable name of the error's taxonomy entry,
// for structured responses and the audit log.
func Kind(err error) string {
	var (
		ve  *ValidationError
		ae  *AuthenticationError
		ee  *ExpiredCredentialError
		pe  *ProtocolError
		me  *EmptyResultError
		ce  *CancelledError
		fe  *FetchError
		rle *RateLimitError
		cte *ConnectionTimeoutError
		ate *AuthTimeoutError
		dte *DataRequestTimeoutError
	)
	switch {
	case errors.As(err, &ve):
		return "ValidationError"
	case errors.As(err, &rle):
		return "RateLimitError"
	case errors.As(err, &ae):
		return "AuthenticationError"
	case errors.As(err, &ee):
		return "ExpiredCredentialError"
	case errors.As(err, &cte):
		return "ConnectionTimeoutError"
	case errors.As(err, &ate):
		return "AuthTimeoutError"
	case errors.As(err, &dte):
		return "DataRequestTimeoutError"
	case errors.As(err, &pe):
		return "ProtocolError"
	case errors.As(err, &me):
		return "EmptyResultError"
	case errors.As(err, &ce):
		return "Cancelled"
	case errors.As(err, &fe):
		return "FetchError"
	default:
		return "FetchError"
	}
}
