package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrTransport             = errors.New("gateway transport error")
	ErrMalformedResponse     = errors.New("malformed gateway response")
	ErrAuthenticationFailure = errors.New("authentication failure")
)

// TransportError describes a failed call. It unwraps to ErrTransport.
type TransportError struct {
	Endpoint   Endpoint
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: http %d: %s", ErrTransport, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrTransport, e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
