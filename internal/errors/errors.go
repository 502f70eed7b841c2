package errors

import (
	"errors"
	"fmt"
)

// Common error types for the shelf sync service
var (
	// Authentication errors
	ErrAuthenticationRequired = errors.New("not authenticated")

	// OAuth callback errors
	ErrMissingCode    = errors.New("no authorization code received")
	ErrMissingState   = errors.New("no state parameter received")
	ErrUnknownSession = errors.New("session not found")
	ErrInvalidState   = errors.New("invalid state parameter")
	ErrStateMismatch  = errors.New("state mismatch")
	ErrNoAccessToken  = errors.New("no access token in response")

	// Upstream response errors
	ErrUnexpectedShape = errors.New("unexpected products data structure")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// ProviderError is returned when the authorization provider reports an error
// parameter on the callback instead of a code.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authentication error: %s", e.Code)
	}
	return fmt.Sprintf("authentication error: %s - %s", e.Code, e.Description)
}

// UpstreamError preserves the status and body of a failed upstream request
// verbatim for debuggability.
type UpstreamError struct {
	Operation string
	Status    int
	Body      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Operation, e.Status, e.Body)
}

// VendorResolutionError is returned when the user profile lacks a usable
// vendor identifier and the user-id fallback also failed. It carries the full
// diagnostic context so the failure is never silently assumed.
type VendorResolutionError struct {
	UserID         int64
	ProfileKeys    []string
	FallbackStatus int
	FallbackBody   string
}

func (e *VendorResolutionError) Error() string {
	return fmt.Sprintf(
		"could not get vendor ID from user info: user ID %d, profile keys %v, fallback status %d",
		e.UserID, e.ProfileKeys, e.FallbackStatus)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
