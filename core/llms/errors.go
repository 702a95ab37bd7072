package llms

import (
	"context"
	"fmt"
)

// NetworkError reports that the transport could not complete a request.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-success response. Message is the error
// description returned by the server, if any.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Message)
}

// IsCancellation reports whether err is the result of ctx being cancelled
// rather than a genuine failure. Only a done ctx makes a failure a
// cancellation; a context.Canceled from some other context is a failure.
func IsCancellation(ctx context.Context, err error) bool {
	if err == nil || ctx == nil {
		return false
	}
	return ctx.Err() != nil
}
