package display

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/event"
	"github.com/dshills/tessera/internal/renderer/layout"
)

// Reason says why screen rows changed.
type Reason uint8

const (
	ReasonEdit Reason = iota
	ReasonFold
	ReasonSettings
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonEdit:
		return "edit"
	case ReasonFold:
		return "fold"
	case ReasonSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ScreenChange reports that screen rows [StartRow, OldEnd) were replaced by
// rows [StartRow, NewEnd). Rows after OldEnd moved by NewEnd-OldEnd. When
// ToEnd is set the old extent is unknown and every row from StartRow on must
// be considered changed.
type ScreenChange struct {
	StartRow       int
	OldEnd         int
	NewEnd         int
	ToEnd          bool
	BufferStartRow int
	Reason         Reason
}

// Delta returns the change in screen row count. It is zero when ToEnd is
// set.
func (c ScreenChange) Delta() int {
	if c.ToEnd {
		return 0
	}
	return c.NewEnd - c.OldEnd
}

// HeightSource supplies the pixel height of block decorations.
type HeightSource interface {
	// HeightForScreenRow returns the block height above screen row row.
	HeightForScreenRow(row int) float64
	// RowForPixelPosition returns the screen row displayed at pixel top.
	RowForPixelPosition(top float64) int
}

// Display is a lazily maintained view of a buffer in screen coordinates.
// It must be used from the goroutine that owns the buffer.
type Display struct {
	buf     *buffer.Buffer
	markers *marker.Index
	engine  *layout.LayoutEngine
	logger  *slog.Logger

	placeholder string
	nonBreaking NonBreakingFunc
	lineHeight  float64
	charWidth   float64
	heights     HeightSource

	lines       []*displayLine
	screenStart []int // screenStart[i] is the first screen row of lines[i]
	prefixValid int   // entries [0, prefixValid) of screenStart are current

	folds      *treemap.Map // buffer.Point -> foldEntry
	foldRanges map[marker.ID]buffer.Range
	rebuildAll bool
	revision   uint64 // buffer revision the lines reflect

	subs      event.Disposables
	changes   event.Emitter[ScreenChange]
	destroyed bool
}

// New creates a display over buf. Folds are kept as markers in markers,
// which must track the same buffer.
func New(buf *buffer.Buffer, markers *marker.Index, opts ...Option) *Display {
	d := &Display{
		buf:         buf,
		markers:     markers,
		engine:      layout.NewLayoutEngine(layout.DefaultTabWidth),
		logger:      slog.New(slog.DiscardHandler),
		placeholder: DefaultFoldPlaceholder,
		lineHeight:  1,
		charWidth:   1,
		folds:       treemap.NewWith(comparePoints),
		foldRanges:  make(map[marker.ID]buffer.Range),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.logger = d.logger.With("component", "display")
	d.revision = buf.Revision()
	d.resetLines()
	d.subs.Add(
		buf.OnDidChange(d.handleBufferChange, event.WithPriority(event.PriorityDisplay)),
		markers.OnDidDestroyAny(d.handleMarkerDestroyed),
	)
	return d
}

// Buffer returns the displayed buffer.
func (d *Display) Buffer() *buffer.Buffer {
	return d.buf
}

// OnDidChangeScreen registers fn to run whenever screen rows change.
func (d *Display) OnDidChangeScreen(fn func(ScreenChange), opts ...event.Option) *event.Subscription {
	return d.changes.Subscribe(fn, opts...)
}

// SetHeightSource installs the provider of block decoration heights used by
// the pixel queries.
func (d *Display) SetHeightSource(h HeightSource) {
	d.heights = h
}

// Destroy removes every fold and detaches from the buffer.
func (d *Display) Destroy() {
	if d.destroyed {
		return
	}
	d.subs.Dispose()
	for id := range d.foldRanges {
		delete(d.foldRanges, id)
		_ = d.markers.Destroy(id)
	}
	d.folds.Clear()
	d.changes.Clear()
	d.destroyed = true
}

// Settings

// SoftWrapColumn returns the wrap column; zero means no wrapping.
func (d *Display) SoftWrapColumn() int {
	return d.engine.WrapWidth()
}

// SetSoftWrapColumn changes the wrap column. Zero disables wrapping.
func (d *Display) SetSoftWrapColumn(column int) {
	if column < 0 {
		column = 0
	}
	if column == d.engine.WrapWidth() {
		return
	}
	d.engine.SetWrap(column, d.engine.WrapAtWord())
	d.invalidateLayouts()
}

// SetWordWrap selects whether soft wrap prefers word boundaries.
func (d *Display) SetWordWrap(enabled bool) {
	if enabled == d.engine.WrapAtWord() {
		return
	}
	d.engine.SetWrap(d.engine.WrapWidth(), enabled)
	d.invalidateLayouts()
}

// TabLength returns the tab width.
func (d *Display) TabLength() int {
	return d.engine.TabWidth()
}

// SetTabLength sets the tab width.
func (d *Display) SetTabLength(width int) {
	if width == d.engine.TabWidth() {
		return
	}
	d.engine.SetTabWidth(width)
	d.invalidateLayouts()
}

// SetHangingIndent sets the extra indent of wrapped continuation rows.
func (d *Display) SetHangingIndent(cells int) {
	if cells == d.engine.HangingIndent() {
		return
	}
	d.engine.SetHangingIndent(cells)
	d.invalidateLayouts()
}

// SetFoldPlaceholder changes the text shown for folds.
func (d *Display) SetFoldPlaceholder(text string) {
	if text == "" || text == d.placeholder {
		return
	}
	d.placeholder = text
	d.resetLines()
	d.emit(ScreenChange{ToEnd: true, Reason: ReasonSettings})
}

// LineHeight returns the pixel height of one screen row.
func (d *Display) LineHeight() float64 {
	return d.lineHeight
}

// CharWidth returns the pixel width of one cell.
func (d *Display) CharWidth() float64 {
	return d.charWidth
}

// Translation

// ScreenPositionForBufferPosition returns where p is displayed. Positions
// inside a fold map to its placeholder and positions inside a character map
// to its first cell.
func (d *Display) ScreenPositionForBufferPosition(p buffer.Point) (ScreenPoint, error) {
	if d.destroyed {
		return ScreenPoint{}, ErrDestroyed
	}
	if err := d.buf.ValidatePosition(p); err != nil {
		return ScreenPoint{}, fmt.Errorf("display: screen position: %w", err)
	}

	i := d.lineForBufferRow(p.Row)
	dl := d.lines[i]
	seg, cell := d.layoutFor(i).CellForByte(dl.byteForPoint(p))
	return ScreenPoint{Row: d.screenRowOf(i) + seg, Column: cell}, nil
}

// BufferPositionForScreenPosition returns the buffer position displayed at
// sp. Positions past the end of a row clip to the row end, rows past the
// end of the screen clip to the end of the buffer and negative rows clip to
// the start.
func (d *Display) BufferPositionForScreenPosition(sp ScreenPoint, opts ...ClipOption) buffer.Point {
	if d.destroyed || sp.Row < 0 {
		return buffer.Point{}
	}
	cfg := newClipConfig(opts)

	i := d.lineForScreenRow(sp.Row)
	if i < 0 {
		return d.buf.Extent()
	}
	seg := sp.Row - d.screenStart[i]
	b := d.layoutFor(i).ByteForCell(seg, max(sp.Column, 0), cfg.clip)
	return d.lines[i].pointForByte(b)
}

// ClipScreenPosition returns the nearest screen position that displays a
// buffer position.
func (d *Display) ClipScreenPosition(sp ScreenPoint, opts ...ClipOption) ScreenPoint {
	p := d.BufferPositionForScreenPosition(sp, opts...)
	clipped, err := d.ScreenPositionForBufferPosition(p)
	if err != nil {
		return ScreenPoint{}
	}
	return clipped
}

// ScreenRangeForBufferRange converts both ends of r.
func (d *Display) ScreenRangeForBufferRange(r buffer.Range) (ScreenRange, error) {
	start, err := d.ScreenPositionForBufferPosition(r.Start)
	if err != nil {
		return ScreenRange{}, err
	}
	end, err := d.ScreenPositionForBufferPosition(r.End)
	if err != nil {
		return ScreenRange{}, err
	}
	return ScreenRange{Start: start, End: end}, nil
}

// BufferRangeForScreenRange converts both ends of r.
func (d *Display) BufferRangeForScreenRange(r ScreenRange) buffer.Range {
	return buffer.NewRange(
		d.BufferPositionForScreenPosition(r.Start),
		d.BufferPositionForScreenPosition(r.End),
	)
}

// ScreenLineCount returns the number of screen rows. It lays out every
// line.
func (d *Display) ScreenLineCount() int {
	if d.destroyed {
		return 0
	}
	return d.screenRowOf(len(d.lines))
}

// DisplayLineCount returns the number of display lines.
func (d *Display) DisplayLineCount() int {
	return len(d.lines)
}

// ScreenLine is one rendered screen row.
type ScreenLine struct {
	Row       int
	BufferRow int // buffer row of the first character on the row
	Text      string
	SoftWrap  bool // a continuation of the previous row
	Folded    bool // the display line contains a fold placeholder
	MaxColumn int
}

// ScreenLines returns screen rows [start, end).
func (d *Display) ScreenLines(start, end int) []ScreenLine {
	if d.destroyed || end <= start {
		return nil
	}
	start = max(start, 0)
	i := d.lineForScreenRow(start)
	if i < 0 {
		return nil
	}

	out := make([]ScreenLine, 0, end-start)
	seg := start - d.screenStart[i]
	for row := start; row < end && i < len(d.lines); row++ {
		l := d.layoutFor(i)
		if seg >= l.RowCount() {
			i++
			seg = 0
			if i >= len(d.lines) {
				break
			}
			l = d.layoutFor(i)
		}
		dl := d.lines[i]
		out = append(out, ScreenLine{
			Row:       row,
			BufferRow: dl.pointForByte(l.Segments[seg].StartByte).Row,
			Text:      l.RowText(seg),
			SoftWrap:  seg > 0,
			Folded:    dl.folded,
			MaxColumn: l.RowMaxColumn(seg),
		})
		seg++
	}
	return out
}

// BufferRowsForScreenRows returns the buffer row shown at the start of each
// screen row in [start, end).
func (d *Display) BufferRowsForScreenRows(start, end int) []int {
	lines := d.ScreenLines(start, end)
	rows := make([]int, len(lines))
	for i, l := range lines {
		rows[i] = l.BufferRow
	}
	return rows
}

// ScreenRowsForBufferRow returns the first screen row of the display line
// containing buffer row row and the number of screen rows it occupies.
func (d *Display) ScreenRowsForBufferRow(row int) (start, count int, err error) {
	if err := d.buf.ValidatePosition(buffer.Point{Row: row}); err != nil {
		return 0, 0, fmt.Errorf("display: screen rows: %w", err)
	}
	i := d.lineForBufferRow(row)
	return d.screenRowOf(i), d.layoutFor(i).RowCount(), nil
}

// Pixels

// PixelTopForScreenRow returns the pixel offset of the top of row, counting
// block decorations above it.
func (d *Display) PixelTopForScreenRow(row int) float64 {
	top := float64(row) * d.lineHeight
	if d.heights != nil {
		top += d.heights.HeightForScreenRow(row)
	}
	return top
}

// PixelPositionForScreenPosition returns the pixel top and left of sp.
func (d *Display) PixelPositionForScreenPosition(sp ScreenPoint) (top, left float64) {
	return d.PixelTopForScreenRow(sp.Row), float64(sp.Column) * d.charWidth
}

// ScreenRowForPixelTop returns the screen row displayed at pixel offset top.
func (d *Display) ScreenRowForPixelTop(top float64) int {
	if d.heights != nil {
		return d.heights.RowForPixelPosition(top)
	}
	if top <= 0 {
		return 0
	}
	return int(top / d.lineHeight)
}

// Internals

func (d *Display) emit(c ScreenChange) {
	d.changes.Emit(c)
}

// resetLines rebuilds every display line and forgets every layout.
func (d *Display) resetLines() {
	d.rebuildAll = false
	d.lines = d.lines[:0]
	for row := 0; row <= d.buf.LastRow(); {
		dl := d.buildLine(row)
		d.lines = append(d.lines, dl)
		row = dl.endRow + 1
	}
	d.screenStart = make([]int, len(d.lines)+1)
	d.prefixValid = 1
}

func (d *Display) invalidateLayouts() {
	for _, dl := range d.lines {
		dl.layout = nil
	}
	d.prefixValid = 1
	d.logger.Debug("layouts invalidated", "wrap", d.engine.WrapWidth(), "tab", d.engine.TabWidth())
	d.emit(ScreenChange{ToEnd: true, Reason: ReasonSettings})
}

func (d *Display) layoutFor(i int) *layout.LineLayout {
	dl := d.lines[i]
	if dl.layout == nil {
		dl.layout = d.engine.Layout(dl.text, dl.atomic)
	}
	return dl.layout
}

// extendPrefix makes one more screenStart entry current.
func (d *Display) extendPrefix() {
	k := d.prefixValid
	d.screenStart[k] = d.screenStart[k-1] + d.layoutFor(k-1).RowCount()
	d.prefixValid++
}

// screenRowOf returns the first screen row of lines[i]; i may be len(lines).
func (d *Display) screenRowOf(i int) int {
	for d.prefixValid <= i {
		d.extendPrefix()
	}
	return d.screenStart[i]
}

// lineForBufferRow returns the index of the display line containing row.
func (d *Display) lineForBufferRow(row int) int {
	i := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].startRow > row
	})
	return max(i-1, 0)
}

// lineForScreenRow returns the index of the display line containing screen
// row row, or -1 when row is past the last line.
func (d *Display) lineForScreenRow(row int) int {
	for d.prefixValid <= len(d.lines) && d.screenStart[d.prefixValid-1] <= row {
		d.extendPrefix()
	}
	i := sort.Search(d.prefixValid, func(i int) bool {
		return d.screenStart[i] > row
	}) - 1
	if i >= len(d.lines) {
		return -1
	}
	return max(i, 0)
}

func (d *Display) handleBufferChange(ev buffer.ChangeEvent) {
	if d.destroyed || len(ev.Changes) == 0 {
		return
	}
	d.revision = ev.Revision

	d.normalizeFolds()
	if d.rebuildAll {
		d.resetLines()
		d.emit(ScreenChange{ToEnd: true, Reason: ReasonEdit})
		return
	}

	span := ev.RowSpan()
	first := d.lineForBufferRow(span.Start)
	last := d.lineForBufferRow(span.OldEnd)
	d.rebuild(first, last, span.Delta(), ReasonEdit)
}

// rebuild replaces display lines [first, last] with lines built from the
// current buffer. delta is the change in buffer rows inside that region;
// lines after it are shifted by delta.
func (d *Display) rebuild(first, last, delta int, reason Reason) {
	startRow := d.lines[first].startRow
	endRow := d.lines[last].endRow + delta
	lastRow := d.buf.LastRow()

	// Screen rows of lines before first stay put. If they were never
	// computed nobody has looked below them.
	known := d.prefixValid > first
	startScreen := d.screenStart[min(first, d.prefixValid-1)]

	var fresh []*displayLine
	row := startRow
	next := last + 1
	for {
		for row <= endRow && row <= lastRow {
			dl := d.buildLine(row)
			fresh = append(fresh, dl)
			row = dl.endRow + 1
		}
		// A fold may now reach into lines that followed the region.
		if next < len(d.lines) && d.lines[next].startRow+delta < row {
			endRow = d.lines[next].endRow + delta
			next++
			continue
		}
		break
	}

	oldRows := 0
	oldCounts := make([]int, 0, next-first)
	for _, dl := range d.lines[first:next] {
		if dl.layout == nil {
			known = false
			break
		}
		oldCounts = append(oldCounts, dl.layout.RowCount())
		oldRows += dl.layout.RowCount()
	}

	if delta != 0 {
		for _, dl := range d.lines[next:] {
			dl.startRow += delta
			dl.endRow += delta
		}
	}

	same := known && len(fresh) == next-first
	newRows := 0
	for k, dl := range fresh {
		dl.layout = d.engine.Layout(dl.text, dl.atomic)
		n := dl.layout.RowCount()
		newRows += n
		if same && oldCounts[k] != n {
			same = false
		}
	}

	tail := d.lines[next:]
	lines := make([]*displayLine, 0, first+len(fresh)+len(tail))
	lines = append(lines, d.lines[:first]...)
	lines = append(lines, fresh...)
	lines = append(lines, tail...)
	d.lines = lines

	if !same {
		valid := min(d.prefixValid, first+1)
		prefix := make([]int, len(d.lines)+1)
		copy(prefix, d.screenStart[:valid])
		d.screenStart = prefix
		d.prefixValid = valid
	}

	c := ScreenChange{
		StartRow:       startScreen,
		OldEnd:         startScreen + oldRows,
		NewEnd:         startScreen + newRows,
		ToEnd:          !known,
		BufferStartRow: startRow,
		Reason:         reason,
	}
	if c.ToEnd {
		c.OldEnd, c.NewEnd = c.StartRow, c.StartRow
	}
	d.emit(c)
}

// pending reports whether a buffer change has not reached the display yet.
func (d *Display) pending() bool {
	return d.revision != d.buf.Revision()
}

// rebuildRows rebuilds the display lines covering buffer rows [start, end].
func (d *Display) rebuildRows(start, end int, reason Reason) {
	d.rebuild(d.lineForBufferRow(start), d.lineForBufferRow(end), 0, reason)
}
