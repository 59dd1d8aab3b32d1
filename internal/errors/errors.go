// Package errors provides typed errors for ooxcrypt operations.
// This enables callers to use errors.Is() and errors.As() for specific error handling.
//
// The engine separates four failure classes that callers must treat
// differently: configuration errors (ErrUnsupported), malformed descriptors
// (ErrMalformedDescriptor), a wrong password (ErrWrongPassword) and a failed
// integrity check (ErrIntegrity). I/O errors from the container are wrapped
// with context but otherwise passed through.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is(err, errors.ErrWrongPassword) to check for specific errors.
var (
	// Configuration errors
	ErrUnsupported = errors.New("unsupported encryption parameters")

	// Descriptor errors
	ErrMalformedDescriptor = errors.New("malformed encryption descriptor")
	ErrSpinCountTooLarge   = errors.New("spin count exceeds limit")

	// Authentication errors
	ErrWrongPassword = errors.New("wrong password")
	ErrIntegrity     = errors.New("data integrity check failed")

	// Engine state errors
	ErrNoKey           = errors.New("encryption key not available")
	ErrPayloadTooLarge = errors.New("payload exceeds segment counter range")
	ErrTruncated       = errors.New("encrypted package truncated")

	// Operation errors
	ErrCancelled    = errors.New("operation cancelled")
	ErrFileExists   = errors.New("file already exists")
	ErrRandFailure  = errors.New("crypto/rand failure")
	ErrMissingInput = errors.New("no input file specified")
)

// CryptoError represents an error during cryptographic operations.
// It wraps the underlying error with operation context.
type CryptoError struct {
	Op  string // Operation name: "rand", "cipher", "hmac", "verifier"
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("crypto %s failed", e.Op)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// FileError represents an error during file operations.
type FileError struct {
	Op   string // Operation: "open", "read", "write", "stat", "create"
	Path string // File path
	Err  error  // Underlying error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError creates a new FileError.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}

// DescriptorError reports a missing or invalid field of the encryption
// descriptor. It always matches ErrMalformedDescriptor with errors.Is.
type DescriptorError struct {
	Field string // Descriptor attribute or element name
	Err   error  // Underlying error
}

func (e *DescriptorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("descriptor %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("descriptor %s invalid", e.Field)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

func (e *DescriptorError) Is(target error) bool {
	return target == ErrMalformedDescriptor
}

// NewDescriptorError creates a new DescriptorError.
func NewDescriptorError(field string, err error) *DescriptorError {
	return &DescriptorError{Field: field, Err: err}
}

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Is checks if target matches any of our sentinel errors.
// This is a convenience function for common error checks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single import.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCancelled checks if the error indicates a cancelled operation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsWrongPassword checks if the error indicates a rejected password.
func IsWrongPassword(err error) bool {
	return errors.Is(err, ErrWrongPassword)
}

// IsIntegrity checks if the error indicates tampered or corrupted payload.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsMalformed checks if the error indicates an unusable descriptor.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedDescriptor) || errors.Is(err, ErrUnsupported)
}
