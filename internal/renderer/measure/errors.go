package measure

import (
	"errors"
	"fmt"

	"github.com/dshills/tessera/internal/renderer/decoration"
)

var (
	// ErrStaleTicket indicates a ticket that was cancelled or superseded.
	ErrStaleTicket = errors.New("stale measurement ticket")

	// ErrClosed indicates the scheduler was closed.
	ErrClosed = errors.New("measurement scheduler closed")
)

// RaceError reports a measurement that arrived after its ticket stopped
// being current.
type RaceError struct {
	Ticket     Ticket
	Decoration decoration.ID
}

// Error implements error.
func (e *RaceError) Error() string {
	if e.Decoration == 0 {
		return fmt.Sprintf("measure: ticket %s: %v", e.Ticket, ErrStaleTicket)
	}
	return fmt.Sprintf("measure: ticket %s for decoration %d: %v", e.Ticket, e.Decoration, ErrStaleTicket)
}

// Unwrap returns ErrStaleTicket.
func (e *RaceError) Unwrap() error {
	return ErrStaleTicket
}
