package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client-side validation failures (empty title/url).
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks sign-in, sign-out and token failures.
	ErrAuth = errors.New("auth failed")
	// ErrNetwork marks backend request failures.
	ErrNetwork = errors.New("backend request failed")
	// ErrShape marks backend responses that do not match the expected shape.
	ErrShape = errors.New("unexpected response shape")
)

// AuthError wraps a failure of an auth operation.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth %s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// NetworkError wraps a failed backend request.
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
