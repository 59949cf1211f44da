// Package domain contains the core business entities for the Moddi community
// platform.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations. They are
// distinct from infrastructure errors (storage backend, network, etc.) and
// are always recoverable result values, never fatal.

var (
	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrFieldsRequired indicates a required registration field is blank.
	ErrFieldsRequired = errors.New("all fields are required")

	// ErrInvalidEmail indicates the email does not match the accepted pattern.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrPasswordTooShort indicates the password fails the length policy.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrContentRequired indicates the post body is empty after trimming.
	ErrContentRequired = errors.New("content is required")

	// ErrContentTooShort indicates the post body fails the length policy.
	ErrContentTooShort = errors.New("content must be at least 5 characters")

	// ErrRatingRequired indicates a review was submitted without a rating.
	ErrRatingRequired = errors.New("rating is required for reviews")

	// ErrInvalidRating indicates a rating outside the 1-5 range, or a
	// rating on a feed that does not take one.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrAuthorRequired indicates a post was submitted without an author id.
	ErrAuthorRequired = errors.New("author is required")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrCredentialsRequired indicates a blank email or password at login.
	ErrCredentialsRequired = errors.New("email and password are required")

	// ErrInvalidCredentials indicates no roster entry matches the login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrNotAuthorized indicates the acting user is neither the author
	// nor an admin.
	ErrNotAuthorized = errors.New("unauthorized to delete this post")

	// ===========================================
	// Not-Found Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a roster entry with the same email.
	ErrUserAlreadyExists = errors.New("user already exists with this email")

	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ===========================================
	// Storage Errors
	// ===========================================

	// ErrStorage indicates a persistence read or write failed. For writes
	// the in-memory mutation has already been applied; only the durable
	// copy may lag.
	ErrStorage = errors.New("storage failure")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., email, post id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// IsExpected reports whether an error belongs to the recoverable taxonomy
// (validation, auth, authorization, not-found) as opposed to a storage
// failure or an unknown internal error.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrFieldsRequired, ErrInvalidEmail, ErrPasswordTooShort,
		ErrContentRequired, ErrContentTooShort, ErrRatingRequired,
		ErrInvalidRating, ErrAuthorRequired,
		ErrCredentialsRequired, ErrInvalidCredentials,
		ErrNotAuthorized,
		ErrUserNotFound, ErrUserAlreadyExists, ErrPostNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
