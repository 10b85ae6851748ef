package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNetwork marks transport failures (connection refused, timeouts, open
	// breaker). Callers use it to tell a flaky network from an API rejection.
	ErrNetwork      = errors.New("network failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	// ErrNoToken is returned by a TokenSource when the caller is anonymous.
	ErrNoToken = errors.New("no access token")
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// newAPIError propagates the body's "message" verbatim when present.
// NestJS validation errors send message as a list; those are joined.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		var s string
		if json.Unmarshal(payload.Message, &s) == nil && s != "" {
			return &APIError{StatusCode: status, Message: s}
		}
		var list []string
		if json.Unmarshal(payload.Message, &list) == nil && len(list) > 0 {
			return &APIError{StatusCode: status, Message: strings.Join(list, "; ")}
		}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("request failed with status %d", status)}
}

// IsNetwork reports whether err came from the transport rather than the API.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
