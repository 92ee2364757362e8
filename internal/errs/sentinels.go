// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels shared by the stores, the token manager and the handlers.
var (
	// ErrNotFound indicates the requested local entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the external sign-in failed or no token
	// exists for the configured tenant.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingCredentials indicates email/password are not configured.
	// It is a configuration problem, but callers that only care about
	// "can I authenticate" match it through ErrUnauthorized.
	ErrMissingCredentials = fmt.Errorf("%w: alchemy credentials are missing", ErrUnauthorized)

	// ErrValidation indicates a required input was missing or blank.
	ErrValidation = errors.New("validation failed")
)

// ExternalAPIError carries the upstream status and message of a failed
// call to the Alchemy API. The create step treats these as fatal.
type ExternalAPIError struct {
	StatusCode int    // HTTP status from upstream; 0 for transport errors
	Message    string // upstream body excerpt or raw transport error text
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("alchemy api: %s", e.Message)
	}
	return fmt.Sprintf("alchemy api: status %d: %s", e.StatusCode, e.Message)
}

// IsExternal reports whether err is (or wraps) an ExternalAPIError.
func IsExternal(err error) bool {
	var apiErr *ExternalAPIError
	return errors.As(err, &apiErr)
}
