package oauth

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no usable token exists for a provider.
var ErrNotAuthenticated = errors.New("oauth: not authenticated")

// AuthError covers every failure of the authorization flow itself: missing or
// invalid callback parameters, state mismatches and rejected token exchanges.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authErrf(format string, args ...any) *AuthError {
	return &AuthError{Reason: fmt.Sprintf(format, args...)}
}
