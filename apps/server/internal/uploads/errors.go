package uploads

import (
	"errors"
	"fmt"
)

// ValidationError is returned when a request is missing a required field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IdentityError is returned when the authenticated account cannot be resolved.
type IdentityError struct {
	Err error
}

// Error implements the error interface.
func (e IdentityError) Error() string {
	return fmt.Sprintf("resolve identity: %v", e.Err)
}

// Unwrap returns the underlying provider error.
func (e IdentityError) Unwrap() error { return e.Err }

// CreateRepositoryError is returned when the provider rejects repository
// creation, e.g. because the name is already taken.
type CreateRepositoryError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e CreateRepositoryError) Error() string {
	return fmt.Sprintf("create repository %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying provider error.
func (e CreateRepositoryError) Unwrap() error { return e.Err }

// HostError is a failure reported by the repository host. Message is the
// host's own explanation, without request URLs, and may be empty.
type HostError struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HostError) Error() string { return e.Err.Error() }

// Unwrap returns the transport error.
func (e *HostError) Unwrap() error { return e.Err }

// PublicMessage returns the part of err that is safe to show to API callers:
// the host's message when there is one, otherwise the cause's text for
// errors raised outside a host adapter. Empty means "no detail".
func PublicMessage(err error) string {
	var he *HostError
	if errors.As(err, &he) {
		return he.Message
	}
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}
