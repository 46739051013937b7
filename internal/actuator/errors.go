package actuator

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFetchFailed wraps every error returned while reading a management endpoint.
	ErrFetchFailed = errors.New("management endpoint fetch failed")
	// ErrDecode is returned when a management endpoint answers with a body that cannot be parsed.
	ErrDecode = errors.New("unable to decode management response")
)

// StatusError reports a non-2xx answer from a management endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
