package salesforce

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteError is one error entry of an API error payload.
type RemoteError struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// APIError is a non-2xx REST response. The API returns a JSON array of
// error entries; the first entry's code drives error classification.
type APIError struct {
	StatusCode int
	Errors     []RemoteError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("remote API error (HTTP %d)", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, re := range e.Errors {
		if re.ErrorCode != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", re.ErrorCode, re.Message))
		} else {
			parts = append(parts, re.Message)
		}
	}
	return fmt.Sprintf("remote API error (HTTP %d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// Code returns the primary error code, e.g. "INVALID_SESSION_ID".
func (e *APIError) Code() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].ErrorCode
}

// isSessionExpired reports whether err is an expired or invalid session,
// which a re-login resolves.
func isSessionExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code() == "INVALID_SESSION_ID"
}

// isRetryable reports whether err is transient: rate limiting or a server
// hiccup the platform resolves on its own.
func isRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case 429, 500, 502, 503, 504:
		return apiErr.Code() != "INVALID_SESSION_ID"
	}
	return apiErr.Code() == "SERVER_UNAVAILABLE" || apiErr.Code() == "UNABLE_TO_LOCK_ROW"
}

// AuthError is a failed login: bad credentials or a blocked connected app.
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s: %s", e.Code, e.Description)
}
