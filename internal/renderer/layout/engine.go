package layout

import "github.com/rivo/uniseg"

// LayoutEngine computes line layouts.
type LayoutEngine struct {
	tabWidth      int
	wrapWidth     int  // 0 = no wrap
	wrapAtWord    bool // Try to wrap at word boundaries
	hangingIndent int  // extra cells for continuation rows
}

// NewLayoutEngine creates a layout engine with the given tab width.
func NewLayoutEngine(tabWidth int) *LayoutEngine {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}
	return &LayoutEngine{
		tabWidth:   tabWidth,
		wrapWidth:  0,
		wrapAtWord: true,
	}
}

// TabWidth returns the current tab width.
func (e *LayoutEngine) TabWidth() int {
	return e.tabWidth
}

// SetTabWidth sets the tab width.
func (e *LayoutEngine) SetTabWidth(width int) {
	if width < 1 {
		width = 1
	}
	e.tabWidth = width
}

// WrapWidth returns the current wrap width (0 = no wrap).
func (e *LayoutEngine) WrapWidth() int {
	return e.wrapWidth
}

// WrapAtWord reports whether wrapping prefers word boundaries.
func (e *LayoutEngine) WrapAtWord() bool {
	return e.wrapAtWord
}

// SetWrap configures soft wrapping.
// width of 0 disables wrapping.
func (e *LayoutEngine) SetWrap(width int, atWord bool) {
	if width < 0 {
		width = 0
	}
	e.wrapWidth = width
	e.wrapAtWord = atWord
}

// HangingIndent returns the extra indent of continuation rows.
func (e *LayoutEngine) HangingIndent() int {
	return e.hangingIndent
}

// SetHangingIndent sets the extra indent, in cells, added to the line's own
// leading whitespace on continuation rows.
func (e *LayoutEngine) SetHangingIndent(cells int) {
	if cells < 0 {
		cells = 0
	}
	e.hangingIndent = cells
}

// Layout computes the layout of text. Spans in atomic must be sorted and
// disjoint; each is kept whole on a single row.
func (e *LayoutEngine) Layout(text string, atomic []Span) *LineLayout {
	l := &LineLayout{Text: text, TabWidth: e.tabWidth}
	l.Units, l.Width = e.units(text, atomic)
	l.Segments = e.wrap(l.Units, len(text))
	return l
}

func (e *LayoutEngine) units(text string, atomic []Span) ([]Unit, int) {
	units := make([]Unit, 0, len(text))
	cell := 0
	pos := 0
	state := -1
	next := 0

	for pos < len(text) {
		for next < len(atomic) && atomic[next].End <= pos {
			next++
		}
		if next < len(atomic) && atomic[next].Start <= pos && atomic[next].End > pos {
			span := atomic[next]
			w := StringWidth(text[pos:span.End], e.tabWidth)
			units = append(units, Unit{Start: pos, End: span.End, StartCell: cell, Cells: w, Atomic: true})
			cell += w
			pos = span.End
			state = -1
			next++
			continue
		}

		limit := len(text)
		if next < len(atomic) && atomic[next].Start > pos {
			limit = atomic[next].Start
		}
		cluster, _, _, newState := uniseg.FirstGraphemeClusterInString(text[pos:limit], state)
		state = newState
		w := GraphemeWidth(cluster, cell, e.tabWidth)
		units = append(units, Unit{
			Start:      pos,
			End:        pos + len(cluster),
			StartCell:  cell,
			Cells:      w,
			Whitespace: isWhitespace(cluster),
		})
		cell += w
		pos += len(cluster)
	}
	return units, cell
}

func (e *LayoutEngine) wrap(units []Unit, textLen int) []Segment {
	total := 0
	if len(units) > 0 {
		last := units[len(units)-1]
		total = last.StartCell + last.Cells
	}
	if e.wrapWidth <= 0 || total <= e.wrapWidth {
		return []Segment{{
			StartByte: 0,
			EndByte:   textLen,
			StartUnit: 0,
			EndUnit:   len(units),
			Cells:     total,
		}}
	}

	indent := e.continuationIndent(units)
	segments := make([]Segment, 0, 1+total/e.wrapWidth)

	for start := 0; start < len(units); {
		avail := e.wrapWidth
		rowIndent := 0
		if start > 0 {
			rowIndent = indent
			avail -= indent
		}

		used := 0
		overflow := start
		for overflow < len(units) {
			w := units[overflow].Cells
			if used > 0 && used+w > avail {
				break
			}
			used += w
			overflow++
		}

		end := overflow
		if e.wrapAtWord && overflow < len(units) {
			if br, ok := findWordWrapBreak(units, start, overflow); ok {
				end = br
			}
		}

		first, last := units[start], units[end-1]
		segments = append(segments, Segment{
			StartByte: first.Start,
			EndByte:   last.End,
			StartUnit: start,
			EndUnit:   end,
			StartCell: first.StartCell,
			Cells:     last.StartCell + last.Cells - first.StartCell,
			Indent:    rowIndent,
		})
		start = end
	}

	return segments
}

// continuationIndent returns the indent of wrapped rows: the line's leading
// whitespace plus the hanging indent, dropped entirely when it would leave
// less than half the row for text.
func (e *LayoutEngine) continuationIndent(units []Unit) int {
	lead := 0
	for _, u := range units {
		if !u.Whitespace || u.Atomic {
			break
		}
		lead += u.Cells
	}
	indent := lead + e.hangingIndent
	if indent*2 > e.wrapWidth {
		return 0
	}
	return indent
}

// findWordWrapBreak returns the unit index just past the last whitespace run
// in [start, overflow), if that leaves something on the row.
func findWordWrapBreak(units []Unit, start, overflow int) (int, bool) {
	if start < 0 {
		start = 0
	}
	if overflow > len(units) {
		overflow = len(units)
	}
	if start >= overflow {
		return 0, false
	}

	lastBreak := -1
	i := start
	for i < overflow {
		if !units[i].Whitespace {
			i++
			continue
		}
		j := i + 1
		for j < overflow && units[j].Whitespace {
			j++
		}
		lastBreak = j
		i = j
	}

	if lastBreak <= start {
		return 0, false
	}
	return lastBreak, true
}
