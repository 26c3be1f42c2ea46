package solver

import (
	"errors"
	"fmt"
)

// ErrNoEndpoint is returned by Solve when the client has no endpoint.
var ErrNoEndpoint = errors.New("solving API endpoint is not configured")

// ServerError reports a non-2xx response from the solving API.
type ServerError struct {
	StatusCode int
	// Body is the beginning of the response body, for logging.
	Body string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server error: %d", e.StatusCode)
}

// NetworkError reports a request that produced no response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a 2xx response whose body is not a valid solve response.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid response from solving API: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
