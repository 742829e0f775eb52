package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingRootURL  = errors.New("root url missing")
	ErrTransport       = errors.New("backend unreachable")
	ErrInvalidEnvelope = errors.New("invalid response envelope")
	ErrEmptyData       = errors.New("response has no data")
)

const (
	StatusConflict    = "CONFLICT"
	conflictInMessage = "conflict"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Envelope   Envelope
}

func (e *APIError) Error() string {
	if e.Envelope.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Envelope.Message)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}

// IsConflict inspects the error payload for the version conflict marker.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict || apiErr.Envelope.Code == http.StatusConflict {
		return true
	}
	if strings.EqualFold(apiErr.Envelope.Status, StatusConflict) {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Envelope.Message), conflictInMessage)
}

// IsTransient reports network failures and server side errors, which are
// worth a user triggered retry.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTransport) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}

// StatusCode returns the HTTP status of an *APIError or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
