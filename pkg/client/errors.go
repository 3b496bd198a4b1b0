package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-success response from the service
type APIError struct {
	StatusCode int             `json:"-"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	Body       string          `json:"-"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	// FastAPI style {"detail": ...}; anything else is kept verbatim in Body.
	_ = json.Unmarshal(body, apiErr)
	apiErr.StatusCode = status
	return apiErr
}

// Message returns the most specific description the service gave
func (e *APIError) Message() string {
	if len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			return s
		}
		return string(e.Detail)
	}
	if e.Body != "" {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status: %d)", e.Message(), e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsValidationError returns true if the service rejected the payload
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
