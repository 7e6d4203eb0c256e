package buffer

import "fmt"

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(p Point, text string) Edit {
	return Edit{Range: PointRange(p), NewText: text}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(r Range) Edit {
	return Edit{Range: r}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%s, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range)
	}
	return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Change describes one replacement applied to the buffer. OldRange is in
// the coordinates of the buffer just before the replacement, NewRange in the
// coordinates just after it.
type Change struct {
	OldRange Range
	NewRange Range
	OldText  string
	NewText  string
}

// RowDelta returns the change in line count caused by this change.
func (c Change) RowDelta() int {
	return c.NewRange.End.Row - c.OldRange.End.Row
}

// IsInsert returns true if the change removed nothing.
func (c Change) IsInsert() bool {
	return c.OldRange.IsEmpty()
}

// ShiftPoint maps a point that does not precede OldRange.End through the
// change. Points before OldRange.Start are returned unchanged; points inside
// the replaced range collapse to NewRange.End.
func (c Change) ShiftPoint(p Point) Point {
	if p.Before(c.OldRange.Start) {
		return p
	}
	if p.Before(c.OldRange.End) {
		return c.NewRange.End
	}
	return c.NewRange.End.Traverse(p.TraversalFrom(c.OldRange.End))
}

// ChangeEvent is emitted once per logical edit operation. Changes are
// ordered as applied; each is expressed in the coordinates produced by the
// changes before it.
type ChangeEvent struct {
	Changes      []Change
	OldLineCount int
	NewLineCount int
	Revision     uint64
}

// RowSpan summarises the rows touched by one event.
// Rows Start..OldEnd of the old buffer were replaced by rows Start..NewEnd of
// the new buffer; every later row moved by NewEnd-OldEnd.
type RowSpan struct {
	Start  int
	OldEnd int
	NewEnd int
}

// Delta returns the change in row count.
func (s RowSpan) Delta() int {
	return s.NewEnd - s.OldEnd
}

// RowSpan coalesces every change of the event into a single row span.
func (ev ChangeEvent) RowSpan() RowSpan {
	if len(ev.Changes) == 0 {
		return RowSpan{}
	}

	first := ev.Changes[0]
	lo := first.OldRange.Start.Row
	hi := first.NewRange.End.Row
	for _, c := range ev.Changes[1:] {
		if c.OldRange.Start.Row < lo {
			lo = c.OldRange.Start.Row
		}
		if c.OldRange.End.Row > hi {
			hi = c.OldRange.End.Row
		}
		hi += c.RowDelta()
	}

	return RowSpan{
		Start:  lo,
		OldEnd: hi - (ev.NewLineCount - ev.OldLineCount),
		NewEnd: hi,
	}
}
