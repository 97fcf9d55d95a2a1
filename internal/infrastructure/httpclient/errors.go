package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError reports an unexpected HTTP status from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// NewStatusError captures a short excerpt of the response body for diagnostics.
func NewStatusError(service string, resp *http.Response) *StatusError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}

// IsSuccess reports a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
