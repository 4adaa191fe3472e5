// Package apperror provides the structured error type and error taxonomy
// used across the daemon. Errors are values that carry context about what
// went wrong and a code the HTTP front-end can translate into a status.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is at the layer that needs to branch
// on them. Detection happens once, close to the source; everything above
// sees the wrapped *AppError.
var (
	// ErrInvalidID indicates a video id failed the length/emptiness check.
	ErrInvalidID = errors.New("invalid video id")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAgeRestricted indicates the extractor refused without credentials.
	ErrAgeRestricted = errors.New("age restricted")

	// ErrCookieDecryption indicates a browser's cookie store could not be
	// decrypted (e.g. Windows DPAPI failure against a Chromium profile).
	ErrCookieDecryption = errors.New("cookie decryption failed")

	// ErrCookieDBCopy indicates the browser's cookie database could not be
	// copied (locked by a running browser process, permissions, etc).
	ErrCookieDBCopy = errors.New("cookie database copy failed")

	// ErrCredentialsExhausted indicates every credential in the retry chain
	// was tried and every attempt failed age-restriction.
	ErrCredentialsExhausted = errors.New("all credentials exhausted")

	// ErrExtractorMissing indicates binary provisioning failed.
	ErrExtractorMissing = errors.New("extractor binary unavailable")

	// ErrExtractorFailed indicates the extractor exited non-zero for a
	// reason other than age-restriction or a cookie failure.
	ErrExtractorFailed = errors.New("extractor failed")

	// ErrCancelled indicates a context was cancelled mid-operation.
	ErrCancelled = errors.New("cancelled")
)

// Code is the taxonomy surfaced to the HTTP caller and the progress stream.
type Code string

const (
	CodeValidation           Code = "validation"
	CodeExtractorMissing     Code = "extractor-missing"
	CodeAgeRestrictedExhaust Code = "age-restricted-exhausted"
	CodeNetwork              Code = "network"
	CodeInternal             Code = "internal"
)

// AppError is the structured error type carried across component boundaries.
type AppError struct {
	Op      string // operation that failed, e.g. "extractor.Fetch"
	Err     error  // underlying error
	Message string // human-facing message
	Code    Code   // taxonomy code for the HTTP layer
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps err with an operation name only.
func New(op string, err error) *AppError {
	return &AppError{Op: op, Err: err}
}

// NewWithMessage wraps err with a human-facing message.
func NewWithMessage(op string, err error, message string) *AppError {
	return &AppError{Op: op, Err: err, Message: message}
}

// NewWithCode wraps err with both a code and a message.
func NewWithCode(op string, err error, code Code, message string) *AppError {
	return &AppError{Op: op, Err: err, Code: code, Message: message}
}

// Wrap wraps an existing error with operation context, returning nil for nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Err: err}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAgeRestricted reports whether err is, or wraps, ErrAgeRestricted.
func IsAgeRestricted(err error) bool { return errors.Is(err, ErrAgeRestricted) }

// IsCancelled reports whether err is, or wraps, ErrCancelled.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// CodeOf extracts the taxonomy code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return CodeInternal
}
