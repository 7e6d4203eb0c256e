package display

import (
	"sort"
	"strings"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/renderer/layout"
)

// fragment maps a byte range of a display line's text to the buffer.
// Rows are relative to the display line's first buffer row so that lines
// below an edit can be shifted without touching their fragments.
type fragment struct {
	start int // display byte offset
	end   int
	row   int // relative buffer row of the first byte
	col   int // buffer column of the first byte

	fold   bool
	endRow int // relative buffer row where the fold ends
	endCol int
}

type displayLine struct {
	startRow int
	endRow   int
	text     string
	frags    []fragment
	atomic   []layout.Span
	folded   bool

	layout *layout.LineLayout // nil until needed
}

// byteForPoint returns the display byte at which p is shown. Points strictly
// inside a fold map to the start of its placeholder.
func (dl *displayLine) byteForPoint(p buffer.Point) int {
	rel := buffer.Point{Row: p.Row - dl.startRow, Column: p.Column}
	for _, f := range dl.frags {
		if !f.fold {
			if rel.Row == f.row && rel.Column >= f.col && rel.Column <= f.col+(f.end-f.start) {
				return f.start + rel.Column - f.col
			}
			continue
		}
		start := buffer.Point{Row: f.row, Column: f.col}
		end := buffer.Point{Row: f.endRow, Column: f.endCol}
		if rel.After(start) && rel.Before(end) {
			return f.start
		}
	}
	return len(dl.text)
}

// pointForByte returns the buffer position shown at display byte b. The end
// of a placeholder resolves to the end of its fold.
func (dl *displayLine) pointForByte(b int) buffer.Point {
	for _, f := range dl.frags {
		if b < f.start || b > f.end {
			continue
		}
		if !f.fold {
			return buffer.Point{Row: dl.startRow + f.row, Column: f.col + b - f.start}
		}
		if b < f.end {
			return buffer.Point{Row: dl.startRow + f.row, Column: f.col}
		}
	}
	last := dl.frags[len(dl.frags)-1]
	return buffer.Point{Row: dl.startRow + last.row, Column: last.col + last.end - last.start}
}

// buildLine assembles the display line that starts at buffer row row.
func (d *Display) buildLine(row int) *displayLine {
	dl := &displayLine{startRow: row}
	var sb strings.Builder
	pos := buffer.Point{Row: row}

	for {
		text, _ := d.buf.LineForRow(pos.Row)
		f, ok := d.nextFold(pos)
		if !ok || f.r.Start.Row != pos.Row {
			d.appendText(dl, &sb, pos, text[pos.Column:])
			break
		}

		d.appendText(dl, &sb, pos, text[pos.Column:f.r.Start.Column])
		start := sb.Len()
		sb.WriteString(d.placeholder)
		dl.frags = append(dl.frags, fragment{
			start:  start,
			end:    sb.Len(),
			row:    f.r.Start.Row - row,
			col:    f.r.Start.Column,
			fold:   true,
			endRow: f.r.End.Row - row,
			endCol: f.r.End.Column,
		})
		dl.atomic = append(dl.atomic, layout.Span{Start: start, End: sb.Len()})
		dl.folded = true
		pos = f.r.End
	}

	dl.endRow = pos.Row
	dl.text = sb.String()
	if d.nonBreaking != nil {
		dl.atomic = disjointSpans(dl.atomic)
	}
	return dl
}

func (d *Display) appendText(dl *displayLine, sb *strings.Builder, pos buffer.Point, text string) {
	start := sb.Len()
	sb.WriteString(text)
	dl.frags = append(dl.frags, fragment{
		start: start,
		end:   sb.Len(),
		row:   pos.Row - dl.startRow,
		col:   pos.Column,
	})

	if d.nonBreaking == nil || text == "" {
		return
	}
	line, _ := d.buf.LineForRow(pos.Row)
	lo, hi := pos.Column, pos.Column+len(text)
	for _, s := range d.nonBreaking(pos.Row, line) {
		s.Start = max(s.Start, lo)
		s.End = min(s.End, hi)
		if s.Start >= s.End {
			continue
		}
		dl.atomic = append(dl.atomic, layout.Span{Start: start + s.Start - lo, End: start + s.End - lo})
	}
}

// disjointSpans sorts spans and merges those that overlap.
func disjointSpans(spans []layout.Span) []layout.Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start < last.End {
			last.End = max(last.End, s.End)
			continue
		}
		out = append(out, s)
	}
	return out
}
