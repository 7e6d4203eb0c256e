package marker

import (
	"errors"
	"fmt"
)

// Errors returned by marker operations.
var (
	// ErrInvalidMarker indicates an unknown or destroyed marker id.
	ErrInvalidMarker = errors.New("invalid marker")

	// ErrIndexDestroyed indicates the index was destroyed.
	ErrIndexDestroyed = errors.New("marker index destroyed")
)

// InvalidMarkerError reports the operation and the id that was not found.
type InvalidMarkerError struct {
	Op string
	ID ID
}

// Error implements the error interface.
func (e *InvalidMarkerError) Error() string {
	return fmt.Sprintf("marker: %s: no marker %d", e.Op, e.ID)
}

// Unwrap returns ErrInvalidMarker.
func (e *InvalidMarkerError) Unwrap() error {
	return ErrInvalidMarker
}
