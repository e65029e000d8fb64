// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package errutil classifies errors into the failure kinds the API surfaces
// and provides oops-aware logging and test helpers.
package errutil

import "errors"

// Sentinel errors for each failure kind. Domain errors wrap one of these
// (usually inside an oops error) so the HTTP boundary can map them once.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
)

// Kind identifies the class of a failure.
type Kind int

// Failure kinds, ordered as they are checked by KindOf.
const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// KindOf classifies err. Anything not wrapping a known sentinel is KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindAuthentication:
		return ErrAuthentication
	case KindAuthorization:
		return ErrAuthorization
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Public is an error whose message is safe to return to API clients.
// Declare instances as package-level sentinels and wrap them with oops.
type Public struct {
	Kind    Kind
	Message string
}

// NewPublic creates a Public error of the given kind.
func NewPublic(kind Kind, message string) *Public {
	return &Public{Kind: kind, Message: message}
}

func (e *Public) Error() string {
	return e.Message
}

// Unwrap exposes the kind sentinel so KindOf and errors.Is see through it.
func (e *Public) Unwrap() error {
	return e.Kind.sentinel()
}

// PublicMessage returns the client-safe message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var pe *Public
	if errors.As(err, &pe) {
		return pe.Message, true
	}
	return "", false
}

// FieldError is a validation failure attached to a single input field.
type FieldError struct {
	Field   string
	Message string
}

// NewFieldError creates a FieldError.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap makes every FieldError match ErrValidation.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// FieldErrorOf extracts the FieldError wrapped in err, if any.
func FieldErrorOf(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
