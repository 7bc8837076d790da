package crate

import "errors"

// Expected denial outcomes. These are returned, never logged as failures:
// the handlers translate them into transport responses.
var (
	// Missing and expired crates share one error so that callers can't
	// tell them apart
	ErrNotFound = errors.New("crate not found or expired")

	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrNotPermitted     = errors.New("not permitted")

	// Binary content is never inlined
	ErrBinaryInline = errors.New("binary crates can't be returned inline, request a download link instead")
)

// ValidationError marks malformed caller input. The message is safe to
// surface verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErr(msg string) error {
	return &ValidationError{msg: msg}
}

// Validation builds a caller input error with a message that is safe to
// show to the caller. Used by the transport adapters for parse failures.
func Validation(msg string) error {
	return validationErr(msg)
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrExpiryTooLong     = validationErr("expiry cannot be more than 29 days")
	ErrExpiryTooShort    = validationErr("expiry cannot be less than 1 hour")
	ErrPublicAndPassword = validationErr("a crate cannot be public and password protected at the same time")
	ErrAnonymousExpiry   = validationErr("anonymous uploads always expire after 30 days")
	ErrNoContent         = validationErr("no content provided")
	ErrInvalidCategory   = validationErr("invalid category")
)
