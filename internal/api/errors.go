package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error is an HTTP-level failure returned by the backend. Transport
// failures (no response at all) are returned as plain wrapped errors,
// not as *Error.
type Error struct {
	// Status is the HTTP status code of the response.
	Status int
	// Message is the human-readable message extracted from the error
	// body, or the raw body when no structured message is present.
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// newError builds an *Error from a response status and body. Backends
// report failures as {"error": "..."} or {"message": "..."}; anything
// else is carried verbatim.
func newError(status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	for _, key := range []string{"error", "message"} {
		if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
			msg = v.String()
			break
		}
	}
	return &Error{Status: status, Message: msg}
}

// IsUnauthorized reports whether err is an HTTP 401 failure.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is an HTTP 404 failure.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsClientError reports whether err is a 4xx failure.
func IsClientError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// IsServerError reports whether err is a 5xx failure.
func IsServerError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
