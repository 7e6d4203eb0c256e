package history

import (
	"time"

	"github.com/dshills/tessera/internal/engine/buffer"
)

// entry is one undo unit. Its changes apply in order, each in the
// coordinates left by the one before.
type entry struct {
	name      string
	changes   []buffer.Change
	timestamp time.Time
}

// OperationInfo describes an entry for display.
type OperationInfo struct {
	Description string
	Changes     int
	Timestamp   time.Time
}

func (e *entry) info() OperationInfo {
	return OperationInfo{
		Description: e.description(),
		Changes:     len(e.changes),
		Timestamp:   e.timestamp,
	}
}

func (e *entry) description() string {
	if e.name != "" {
		return e.name
	}
	if len(e.changes) != 1 {
		return "Edit"
	}
	c := e.changes[0]
	switch {
	case c.IsInsert():
		return "Insert"
	case c.NewText == "":
		return "Delete"
	}
	return "Replace"
}

// undo reverts the changes, last first.
func (e *entry) undo(buf *buffer.Buffer) error {
	return buf.Transact(func() error {
		for i := len(e.changes) - 1; i >= 0; i-- {
			c := e.changes[i]
			if _, err := buf.SetTextInRange(c.NewRange, c.OldText); err != nil {
				return err
			}
		}
		return nil
	})
}

// redo applies the changes again, first first.
func (e *entry) redo(buf *buffer.Buffer) error {
	return buf.Transact(func() error {
		for _, c := range e.changes {
			if _, err := buf.SetTextInRange(c.OldRange, c.NewText); err != nil {
				return err
			}
		}
		return nil
	})
}
