package types

import "errors"

// Sentinel errors shared across services. Every operation returns either a
// value or exactly one of these kinds; nothing else crosses a service
// boundary.
var (
	// ErrUnauthenticated means no current user; the caller should redirect
	// to sign-in.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFoundOrForbidden is returned when an ownership-scoped mutation
	// matched zero rows. The caller cannot tell "not yours" from "doesn't
	// exist", which avoids leaking row existence across users.
	ErrNotFoundOrForbidden = errors.New("resource not found")

	// ErrStoreUnavailable wraps backend failures. Safe to retry: each
	// operation maps to a single write, so there is no partial effect.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries a user-facing message tied to the field that failed.
// Always recoverable: the caller re-renders the form, nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
