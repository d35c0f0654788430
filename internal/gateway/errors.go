package gateway

import (
	"errors"
	"fmt"
)

// TransportError indicates the request never produced an HTTP response
// (DNS failure, connection refused, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError indicates the server responded but with a non-2xx HTTP status,
// or with HTTP 200 carrying a business code other than 200.
type ServerError struct {
	// StatusCode is the HTTP status, zero when the failure is a business
	// code inside a 200 response.
	StatusCode int
	// Code is the business status code from the response envelope.
	Code int
	Msg  string
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
	if e.Msg != "" {
		return fmt.Sprintf("server returned code %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("server returned code %d", e.Code)
}

// AuthError indicates a missing or rejected credential.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// IsTransport reports whether err is (or wraps) a TransportError. The
// collector retries only these; server and auth failures are not transient.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
