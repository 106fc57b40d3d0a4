// internal/mgmt/errors.go
package mgmt

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a read response is not the expected JSON array.
var ErrMalformed = errors.New("mgmt: malformed response")

// ErrNotEditable is returned by ChangedFields for fields outside the edit set.
var ErrNotEditable = errors.New("mgmt: field is not editable")

// RequestError describes a failed management request.
// Reason is the server's response body, unmodified.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int // 0 when the request never got a response
	Reason     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("mgmt: %s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Reason == "" {
		return fmt.Sprintf("mgmt: %s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("mgmt: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Reason)
}

func (e *RequestError) Unwrap() error { return e.Err }
