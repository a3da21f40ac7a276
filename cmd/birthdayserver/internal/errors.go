package internal

import "errors"

// Validation errors carry the exact text sent back to clients.
var (
	ErrInvalidUsername   = errors.New("Invalid username")
	ErrInvalidDateFormat = errors.New("Invalid date format")
	ErrFutureDate        = errors.New("Date of birth must be in the past")
	ErrNotFound          = errors.New("User not found")
)

// A StorageError is returned when the backing database fails a read or write.
// Err holds the driver's error unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Message is the backend's own description of the failure.
func (e *StorageError) Message() string { return e.Err.Error() }
