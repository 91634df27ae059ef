package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPostalCode  = errors.New("postal code must have 8 digits")
	ErrPostalCodeNotFound = errors.New("postal code not found")
)

// DefaultMessage is shown when a failure carries no user-facing message of its own.
const DefaultMessage = "Ocorreu um erro. Tente novamente mais tarde."

type ErrorKind int

const (
	// KindValidation is raised before any I/O for malformed or missing input.
	KindValidation ErrorKind = iota + 1
	// KindRejected means a remote service refused the request (bad credentials, unknown postal code).
	KindRejected
	// KindUnavailable means storage or network failed; the user may retry.
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// UserError carries a message that can be shown to the user as is.
type UserError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *UserError {
	return &UserError{Kind: KindValidation, Message: message}
}

func NewRejectedError(message string, err error) *UserError {
	return &UserError{Kind: KindRejected, Message: message, Err: err}
}

func NewUnavailableError(message string, err error) *UserError {
	return &UserError{Kind: KindUnavailable, Message: message, Err: err}
}

// MessageOf returns the user-facing message carried by err, or DefaultMessage.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var userErr *UserError
	if errors.As(err, &userErr) && userErr.Message != "" {
		return userErr.Message
	}

	return DefaultMessage
}

// IsKind reports whether err carries a UserError of kind.
func IsKind(err error, kind ErrorKind) bool {
	var userErr *UserError
	return errors.As(err, &userErr) && userErr.Kind == kind
}
