package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the record changed underneath the caller.
	ErrConflict = errors.New("conflict")
)
