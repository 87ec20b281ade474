package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a body that must describe a resource does not
var ErrMalformedResponse = errors.New("malformed response")

// Error is a failed boundary call. Status 0 means the request never got an
// HTTP answer (network, timeout, cancelled); otherwise the server rejected it.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err is a failure to reach the server
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// StatusOf returns the HTTP status behind err, or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DetailOr returns the server's human-readable detail for err, or fallback
func DetailOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
