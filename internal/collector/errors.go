package collector

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoData indicates the API responded but returned no value row.
var ErrNoData = errors.New("no data rows in response")

// APIError carries the HTTP status of a failed demographics request so
// callers can classify the failure without string inspection.
type APIError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("census api: %v", e.Err)
	}
	return fmt.Sprintf("census api: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the upstream throttled the request.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err is a throttling response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited()
}
