// Package layout computes the soft-wrapped layout of a single display line.
//
// A display line is split into units: grapheme clusters, or whole
// non-breaking spans such as fold placeholders. Each unit has a byte range
// and a cell width (East-Asian wide characters take two cells, tabs run to
// the next tab stop). Units are packed into segments, one per screen row,
// breaking after the last whitespace run that fits when word wrap is on and
// at the column otherwise. Continuation segments carry a hanging indent.
package layout

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) of a display line.
type Span struct {
	Start int
	End   int
}

// Unit is the smallest piece of a line that is never split across rows.
type Unit struct {
	Start      int // byte offset
	End        int // byte offset, exclusive
	StartCell  int // cell offset from the start of the line
	Cells      int
	Whitespace bool
	Atomic     bool // a non-breaking span
}

// Segment is the part of a line shown on one screen row.
type Segment struct {
	StartByte int
	EndByte   int
	StartUnit int
	EndUnit   int // exclusive
	StartCell int // cell offset of the first unit within the line
	Cells     int // cells used by the units, excluding Indent
	Indent    int // leading cells inserted before the first unit
}

// Width returns the total cells of the row, including the indent.
func (s Segment) Width() int {
	return s.Indent + s.Cells
}

// LineLayout is the wrapped layout of one display line.
type LineLayout struct {
	Text     string
	Units    []Unit
	Segments []Segment // always at least one
	Width    int       // unwrapped cell width
	TabWidth int
}

// RowCount returns the number of screen rows the line occupies.
func (l *LineLayout) RowCount() int {
	return len(l.Segments)
}

// SegmentForByte returns the index of the segment that displays byte offset
// col. An offset on a wrap boundary belongs to the later segment.
func (l *LineLayout) SegmentForByte(col int) int {
	i := sort.Search(len(l.Segments), func(i int) bool {
		return l.Segments[i].StartByte > col
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// unitForByte returns the index of the unit containing byte col, or
// len(Units) for the end of the line.
func (l *LineLayout) unitForByte(col int) int {
	i := sort.Search(len(l.Units), func(i int) bool {
		return l.Units[i].End > col
	})
	return i
}

// CellForByte returns the segment index and cell column at which byte
// offset col is displayed. Offsets inside a unit snap to its start.
func (l *LineLayout) CellForByte(col int) (row, cell int) {
	row = l.SegmentForByte(col)
	seg := l.Segments[row]

	u := l.unitForByte(col)
	if u >= seg.EndUnit {
		return row, seg.Indent + seg.Cells
	}
	if u < seg.StartUnit {
		return row, seg.Indent
	}
	return row, seg.Indent + l.Units[u].StartCell - seg.StartCell
}

// Clip selects which side of a unit a position inside it resolves to.
type Clip uint8

const (
	ClipBackward Clip = iota
	ClipForward
	ClipClosest
)

// ByteForCell returns the byte offset displayed at cell of segment row.
// Cells inside a unit resolve to its start (ClipBackward), its end
// (ClipForward) or whichever is nearer (ClipClosest). Cells at or beyond
// the end of a row that is followed by a wrapped continuation resolve to the
// last unit of the row, so the result still displays on that row.
func (l *LineLayout) ByteForCell(row, cell int, clip Clip) int {
	if row < 0 {
		return 0
	}
	if row >= len(l.Segments) {
		return len(l.Text)
	}
	seg := l.Segments[row]
	cell -= seg.Indent
	if cell <= 0 {
		return seg.StartByte
	}

	for u := seg.StartUnit; u < seg.EndUnit; u++ {
		unit := l.Units[u]
		offset := unit.StartCell - seg.StartCell
		if cell == offset {
			return unit.Start
		}
		if cell < offset+unit.Cells {
			if clip == ClipClosest {
				clip = ClipBackward
				if (cell-offset)*2 >= unit.Cells {
					clip = ClipForward
				}
			}
			if clip == ClipForward {
				if u == seg.EndUnit-1 && row < len(l.Segments)-1 {
					return unit.Start
				}
				return unit.End
			}
			return unit.Start
		}
	}

	// Past the end of the row.
	if row == len(l.Segments)-1 {
		return seg.EndByte
	}
	if seg.EndUnit > seg.StartUnit {
		return l.Units[seg.EndUnit-1].Start
	}
	return seg.StartByte
}

// RowText returns the text shown on segment row, with its indent and with
// tabs expanded to spaces.
func (l *LineLayout) RowText(row int) string {
	if row < 0 || row >= len(l.Segments) {
		return ""
	}
	seg := l.Segments[row]
	return strings.Repeat(" ", seg.Indent) +
		ExpandTabs(l.Text[seg.StartByte:seg.EndByte], seg.StartCell, l.TabWidth)
}

// RowMaxColumn returns the largest cell column a cursor can occupy on row.
func (l *LineLayout) RowMaxColumn(row int) int {
	if row < 0 || row >= len(l.Segments) {
		return 0
	}
	seg := l.Segments[row]
	if row == len(l.Segments)-1 || seg.EndUnit == seg.StartUnit {
		return seg.Width()
	}
	last := l.Units[seg.EndUnit-1]
	return seg.Indent + last.StartCell - seg.StartCell
}
