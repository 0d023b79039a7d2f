// Package errors provides error types and handling for Unifier client operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a Unifier operation error with context about the operation
// that failed. It wraps the underlying error with the dataset name and, for
// transfer failures, the object key involved.
type Error struct {
	// Op is the operation that failed (e.g., "replicate", "query", "download")
	Op string

	// Dataset is the dataset name the operation was running against (if applicable)
	Dataset string

	// Key is the object key that failed (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Dataset != "" && e.Key != "" {
		return fmt.Sprintf("unifier.%s %s %s: %v", e.Op, e.Dataset, e.Key, e.Err)
	}
	if e.Dataset != "" {
		return fmt.Sprintf("unifier.%s dataset %s: %v", e.Op, e.Dataset, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("unifier.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("unifier.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDataset adds dataset context to an existing error.
func (e *Error) WithDataset(dataset string) *Error {
	e.Dataset = dataset
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewValidationError creates a new Error for invalid caller input.
func NewValidationError(op, message string) *Error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%w: %s", ErrInvalidInput, message),
	}
}

// Sentinel errors for the replication failure taxonomy.
// These can be used with errors.Is() for error checking. All of them are
// terminal for a run; the client never retries internally.
var (
	// ErrAuth indicates the service rejected the identity or credentials
	ErrAuth = errors.New("unifier: authentication rejected")

	// ErrProtocol indicates a malformed or incomplete response from the service
	ErrProtocol = errors.New("unifier: malformed service response")

	// ErrNetwork indicates a transport-level failure reaching the service or storage
	ErrNetwork = errors.New("unifier: network failure")

	// ErrToolExecution indicates the delegated sync tool spawned but failed
	ErrToolExecution = errors.New("unifier: sync tool execution failed")

	// ErrTransfer indicates a specific object failed to download natively
	ErrTransfer = errors.New("unifier: object transfer failed")

	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("unifier: invalid input")
)

// IsAuth checks if an error indicates the service rejected the credentials.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsProtocol checks if an error indicates an incomplete or malformed manifest.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsNetwork checks if an error indicates a transport-level failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsToolExecution checks if an error came from the delegated sync tool.
func IsToolExecution(err error) bool {
	return errors.Is(err, ErrToolExecution)
}

// IsTransfer checks if an error indicates a failed object download.
func IsTransfer(err error) bool {
	return errors.Is(err, ErrTransfer)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
