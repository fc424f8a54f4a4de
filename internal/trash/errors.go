package trash

import (
	"errors"
	"fmt"
)

// Common errors returned by trash operations
var (
	// ErrNotFound is returned when the source path does not exist
	ErrNotFound = errors.New("no such file or directory")

	// ErrPermissionDenied is returned when permission is denied for an operation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTrashUnavailable is returned when the trash directory structure
	// cannot be created or validated
	ErrTrashUnavailable = errors.New("trash directory unavailable")

	// ErrNameExhausted is returned when no free entry name could be found
	// within the retry ceiling
	ErrNameExhausted = errors.New("trash entry names exhausted")
)

// OpError wraps an error with additional context about the failed step
type OpError struct {
	// Op is the step that failed (e.g., "resolve", "locate", "move")
	Op string

	// Path is the path of the item that caused the error
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *OpError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError creates a new OpError
func NewOpError(op, path string, err error) error {
	return &OpError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// SizeCacheWarning reports a non-fatal directorysizes update failure.
// The trash operation it belongs to still succeeded.
type SizeCacheWarning struct {
	// Root is the trash root whose cache could not be updated
	Root string

	// Err is the underlying error
	Err error
}

func (w *SizeCacheWarning) Error() string {
	return fmt.Sprintf("directorysizes update failed for %s: %v", w.Root, w.Err)
}

func (w *SizeCacheWarning) Unwrap() error {
	return w.Err
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied returns true if the error is ErrPermissionDenied
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsTrashUnavailable returns true if the error is ErrTrashUnavailable
func IsTrashUnavailable(err error) bool {
	return errors.Is(err, ErrTrashUnavailable)
}

// IsNameExhausted returns true if the error is ErrNameExhausted
func IsNameExhausted(err error) bool {
	return errors.Is(err, ErrNameExhausted)
}
