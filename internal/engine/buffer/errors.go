package buffer

import (
	"errors"
	"fmt"
)

// Errors returned by buffer operations.
var (
	// ErrOutOfBounds indicates a position outside the buffer's extents.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrRangeInvalid indicates a range whose end precedes its start.
	ErrRangeInvalid = errors.New("invalid range")

	// ErrEditsOverlap indicates two edits in one batch touch the same text.
	ErrEditsOverlap = errors.New("edits overlap")

	// ErrDestroyed indicates the buffer has been destroyed.
	ErrDestroyed = errors.New("buffer destroyed")
)

// OutOfBoundsError reports the offending position and the buffer extent at
// the time of the call.
type OutOfBoundsError struct {
	Op     string
	Point  Point
	Extent Point
}

// Error implements the error interface.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("buffer: %s: position %s outside extent %s", e.Op, e.Point, e.Extent)
}

// Unwrap returns ErrOutOfBounds.
func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}
