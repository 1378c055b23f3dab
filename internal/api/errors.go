package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork marks requests that never produced an HTTP response.
	ErrNetwork = errors.New("network failure")
	// ErrRejected marks requests the server answered with a non-success status.
	ErrRejected = errors.New("request rejected")
	// ErrUnauthorized marks an expired or missing session. Callers pass it
	// up unchanged so the session layer can react.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition is returned for status changes the board does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NetworkError wraps a transport failure for one request.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches ErrRejected for every status and ErrUnauthorized for 401/403.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return true
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}
