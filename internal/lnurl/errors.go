package lnurl

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongTag is returned when the service answers with a tag other
	// than the one the flow expects.
	ErrWrongTag = errors.New("wrong tag type")

	// ErrMalformedMetadata is returned when a reply is not JSON or lacks
	// a field the flow needs.
	ErrMalformedMetadata = errors.New("malformed lnurl response")
)

// DecodeError is returned when a bech32 LNURL cannot be turned into a URL.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid lnurl %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError wraps network level failures: refused connections,
// timeouts, too many redirects.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is returned when the service answers with a 4xx/5xx status.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// ServiceError carries the reason of an LNURL {"status":"ERROR"} reply.
type ServiceError struct {
	Reason string
}

func (e *ServiceError) Error() string {
	return "lnurl service error: " + e.Reason
}
