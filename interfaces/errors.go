package interfaces

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigError reports a missing, malformed or incomplete configuration input.
// It is always fatal and raised before any remote call is made.
type ConfigError struct {
	// Field is the dotted path of the offending field, empty for document-level failures.
	Field string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError reports a network or connection failure reaching an admin API.
type TransportError struct {
	Target string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %s: transport failure: %v", e.Target, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AdminAPIError reports a non-success status returned by an admin API.
// It carries the status code and the response body for diagnostics.
type AdminAPIError struct {
	Target     string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *AdminAPIError) Error() string {
	return fmt.Sprintf("%s %s %s failed with code %d: %s", e.Target, e.Method, e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an AdminAPIError with status 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is an AdminAPIError with status 409.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, code int) bool {
	var apiErr *AdminAPIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
