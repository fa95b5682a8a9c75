// Package fault defines the error taxonomy shared by the fitdex stores.
// Hydration failures are recovered inside the stores; everything classified
// here is what a mutating operation hands back to its caller.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller's handling logic.
type Kind string

const (
	// KindStorageRead indicates the durable store could not be read.
	KindStorageRead Kind = "storage_read"

	// KindStorageWrite indicates a snapshot could not be persisted.
	// The in-memory state was not changed.
	KindStorageWrite Kind = "storage_write"

	// KindAuth indicates a sign-in, sign-up, sign-out or profile update failed.
	KindAuth Kind = "auth"

	// KindValidation indicates the caller supplied unusable input.
	KindValidation Kind = "validation"
)

// Error is a classified error with operation context.
type Error struct {
	// Kind is the error classification.
	Kind Kind `json:"kind"`

	// Op is the store operation that failed (e.g. "favorites.add").
	Op string `json:"op,omitempty"`

	// Key is the storage key involved, if any.
	Key string `json:"key,omitempty"`

	// Code is an optional code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Message is the human-readable message.
	Message string `json:"message"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s (op=%s", e.Kind, msg, e.Op)
		if e.Key != "" {
			msg += ", key=" + e.Key
		}
		msg += ")"
	} else {
		msg = fmt.Sprintf("[%s] %s", e.Kind, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target that
// carries a code must match it as well, so the sentinels below match any
// error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// Sentinels for errors.Is.
var (
	ErrStorageRead  = &Error{Kind: KindStorageRead}
	ErrStorageWrite = &Error{Kind: KindStorageWrite}
	ErrAuth         = &Error{Kind: KindAuth}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotSignedIn  = &Error{Kind: KindAuth, Code: CodeNotSignedIn}
)

// Common error codes.
const (
	CodeNotSignedIn = "NOT_SIGNED_IN"
	CodeValidation  = "VALIDATION_ERROR"
	CodePersist     = "PERSIST_FAILED"
	CodeVerify      = "VERIFY_FAILED"
)

// NewStorageReadError creates a storage read error for key.
func NewStorageReadError(op, key string, err error) *Error {
	return &Error{
		Kind:    KindStorageRead,
		Op:      op,
		Key:     key,
		Message: "failed to read from storage",
		Err:     err,
	}
}

// NewStorageWriteError creates a storage write error for key.
func NewStorageWriteError(op, key string, err error) *Error {
	return &Error{
		Kind:    KindStorageWrite,
		Op:      op,
		Key:     key,
		Code:    CodePersist,
		Message: "failed to persist snapshot",
		Err:     err,
	}
}

// NewAuthError creates an auth error.
func NewAuthError(op, message string, err error) *Error {
	return &Error{
		Kind:    KindAuth,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(op, message string, err error) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Code:    CodeValidation,
		Message: message,
		Err:     err,
	}
}

// WithCode sets the error code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithKey sets the storage key.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// IsStorageRead returns true if err is or wraps a storage read error.
func IsStorageRead(err error) bool {
	return errors.Is(err, ErrStorageRead)
}

// IsStorageWrite returns true if err is or wraps a storage write error.
func IsStorageWrite(err error) bool {
	return errors.Is(err, ErrStorageWrite)
}

// IsAuth returns true if err is or wraps an auth error.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsValidation returns true if err is or wraps a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or "" when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
