package api

import (
	"errors"
	"fmt"
)

// CodeInitialPasswordRequired is the error code the backend reports when
// the account must set its first password before signing in.
const CodeInitialPasswordRequired = "INITIAL_PASSWORD_REQUIRED"

// ErrInitialPasswordRequired is returned by Login when the account has to
// go through the initial password setup first.
var ErrInitialPasswordRequired = errors.New("initial password setup required")

// AuthError indicates that the backend rejected the session (HTTP 401).
type AuthError struct {
	Method  string
	Path    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error on %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("auth error on %s %s", e.Method, e.Path)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx response other than 401.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d) on %s %s: %s", e.Status, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("unexpected status %d on %s %s", e.Status, e.Method, e.Path)
}

// UserMessage turns any error from this package into text suitable for a
// form error line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInitialPasswordRequired) {
		return "You must set a password before signing in."
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		if authErr.Message != "" {
			return authErr.Message
		}
		return "Invalid login ID or password."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "The server could not be reached. Please try again."
}
