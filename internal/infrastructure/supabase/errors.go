package supabase

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the API rejected the token or key (401/403).
	ErrUnauthorized = errors.New("supabase: unauthorized")
	// ErrNotFound means the resource does not exist (404).
	ErrNotFound = errors.New("supabase: not found")
	// ErrServerError covers 5xx responses.
	ErrServerError = errors.New("supabase: server error")
	// ErrNotConfigured means SUPABASE_URL or SUPABASE_SECRET_KEY is empty.
	ErrNotConfigured = errors.New("supabase: client not configured")
)

// APIError is a non-2xx response from Supabase.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase api error (status %d): %s", e.StatusCode, e.Message)
}

// Is maps the status code onto the sentinel errors above.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return target == ErrUnauthorized
	case e.StatusCode == 404:
		return target == ErrNotFound
	case e.StatusCode >= 500:
		return target == ErrServerError
	}
	return false
}
