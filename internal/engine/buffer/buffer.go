package buffer

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dshills/tessera/internal/event"
)

// Buffer is an ordered list of lines with per-line endings.
type Buffer struct {
	lines      []Line
	lineEnding LineEnding
	normalize  bool
	revision   uint64
	destroyed  bool
	logger     *slog.Logger

	changes event.Emitter[ChangeEvent]

	// tx collects changes while Transact is running.
	tx *transaction
}

type transaction struct {
	saved        []Line
	oldLineCount int
	changes      []Change
}

// New creates a buffer holding text. Each line keeps the ending it had in
// text.
func New(text string, opts ...Option) *Buffer {
	b := &Buffer{
		lineEnding: LineEndingLF,
		normalize:  true,
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.lines = splitLines(text)
	b.logger = b.logger.With("component", "buffer")
	return b
}

// NewFromReader creates a buffer from an io.Reader.
func NewFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// Read all content first so CRLF pairs split across reads stay intact.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffer: read: %w", err)
	}
	return New(string(data), opts...), nil
}

// Read Operations

// Text returns the full buffer content as a string, or "" once destroyed.
func (b *Buffer) Text() string {
	if b.destroyed {
		return ""
	}
	return joinLines(b.lines)
}

// GetText returns the text in r, including the line endings it spans.
func (b *Buffer) GetText(r Range) (string, error) {
	if err := b.checkRange("GetText", r); err != nil {
		return "", err
	}
	return b.textInRange(r), nil
}

// LineForRow returns the text of a row without its line ending.
func (b *Buffer) LineForRow(row int) (string, error) {
	if b.destroyed {
		return "", ErrDestroyed
	}
	if row < 0 || row >= len(b.lines) {
		return "", &OutOfBoundsError{Op: "LineForRow", Point: Point{Row: row}, Extent: b.extent()}
	}
	return b.lines[row].Text, nil
}

// LineEndingForRow returns the ending that terminates row.
// The last row reports LineEndingNone.
func (b *Buffer) LineEndingForRow(row int) LineEnding {
	if b.destroyed || row < 0 || row >= len(b.lines) {
		return LineEndingNone
	}
	return b.lines[row].Ending
}

// LineLength returns the byte length of row's text, or 0 for rows outside
// the buffer.
func (b *Buffer) LineLength(row int) int {
	if b.destroyed || row < 0 || row >= len(b.lines) {
		return 0
	}
	return len(b.lines[row].Text)
}

// LineCount returns the number of lines (at least 1), or 0 once destroyed.
func (b *Buffer) LineCount() int {
	if b.destroyed {
		return 0
	}
	return len(b.lines)
}

// LastRow returns the index of the final row.
func (b *Buffer) LastRow() int {
	return len(b.lines) - 1
}

// Extent returns the position just past the last character.
func (b *Buffer) Extent() Point {
	if b.destroyed {
		return Point{}
	}
	return b.extent()
}

// LineEnding returns the ending used for inserted line breaks.
func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// SetLineEnding sets the ending used for inserted line breaks.
// This does not convert existing line endings.
func (b *Buffer) SetLineEnding(le LineEnding) {
	if le != LineEndingNone {
		b.lineEnding = le
	}
}

// Revision returns a counter incremented once per change event.
func (b *Buffer) Revision() uint64 {
	return b.revision
}

// IsEmpty returns true if the buffer holds a single empty line.
func (b *Buffer) IsEmpty() bool {
	return len(b.lines) == 1 && b.lines[0].Text == ""
}

// IsDestroyed reports whether Destroy has been called.
func (b *Buffer) IsDestroyed() bool {
	return b.destroyed
}

// Positions

// ValidatePosition returns an error if p is not a position in the buffer.
func (b *Buffer) ValidatePosition(p Point) error {
	return b.checkPoint("ValidatePosition", p)
}

// ValidateRange returns an error if either end of r is outside the buffer or
// r is reversed.
func (b *Buffer) ValidateRange(r Range) error {
	return b.checkRange("ValidateRange", r)
}

// ClipPosition returns the nearest valid position to p. Columns that fall
// inside a multi-byte character move back to its first byte.
func (b *Buffer) ClipPosition(p Point) Point {
	if b.destroyed {
		return Point{}
	}
	if p.Row < 0 {
		return Point{}
	}
	if p.Row >= len(b.lines) {
		return b.extent()
	}
	text := b.lines[p.Row].Text
	col := p.Column
	if col < 0 {
		col = 0
	}
	if col > len(text) {
		col = len(text)
	}
	for col > 0 && col < len(text) && !utf8.RuneStart(text[col]) {
		col--
	}
	return Point{Row: p.Row, Column: col}
}

// ClipRange clips both ends of r.
func (b *Buffer) ClipRange(r Range) Range {
	return NewRange(b.ClipPosition(r.Start), b.ClipPosition(r.End))
}

// Write Operations

// SetTextInRange replaces the text in r and returns the range now occupied
// by the inserted text.
func (b *Buffer) SetTextInRange(r Range, text string) (Range, error) {
	if err := b.checkRange("SetTextInRange", r); err != nil {
		return Range{}, err
	}

	oldCount := len(b.lines)
	c := b.replace(r, text, b.normalize)
	b.commit(oldCount, []Change{c})
	return c.NewRange, nil
}

// Insert inserts text at p.
func (b *Buffer) Insert(p Point, text string) (Range, error) {
	return b.SetTextInRange(PointRange(p), text)
}

// Delete removes the text in r.
func (b *Buffer) Delete(r Range) error {
	_, err := b.SetTextInRange(r, "")
	return err
}

// Append inserts text at the end of the buffer.
func (b *Buffer) Append(text string) (Range, error) {
	return b.Insert(b.Extent(), text)
}

// ApplyEdits applies a batch of non-overlapping edits as one operation and
// returns, in input order, the range each edit's text occupies afterwards.
// Every edit is validated before anything is modified.
func (b *Buffer) ApplyEdits(edits []Edit) ([]Range, error) {
	if b.destroyed {
		return nil, ErrDestroyed
	}
	if len(edits) == 0 {
		return nil, nil
	}

	// Validate all ranges
	for _, e := range edits {
		if err := b.checkRange("ApplyEdits", e.Range); err != nil {
			return nil, err
		}
	}

	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return edits[x].Range.Start.Compare(edits[y].Range.Start)
	})

	// Validate edits are non-overlapping
	for i := 1; i < len(order); i++ {
		prev, cur := edits[order[i-1]].Range, edits[order[i]].Range
		if cur.Start.Before(prev.End) {
			return nil, fmt.Errorf("buffer: ApplyEdits: %s and %s: %w", prev, cur, ErrEditsOverlap)
		}
	}

	// Apply bottom-up so coordinates of earlier edits stay valid.
	oldCount := len(b.lines)
	changes := make([]Change, 0, len(edits))
	for i := len(order) - 1; i >= 0; i-- {
		e := edits[order[i]]
		changes = append(changes, b.replace(e.Range, e.NewText, b.normalize))
	}

	// changes[k] was applied before every lower edit; map its new range
	// through those later changes.
	result := make([]Range, len(edits))
	for k, c := range changes {
		r := c.NewRange
		for _, later := range changes[k+1:] {
			r = Range{Start: later.ShiftPoint(r.Start), End: later.ShiftPoint(r.End)}
		}
		result[order[len(order)-1-k]] = r
	}

	b.commit(oldCount, changes)
	return result, nil
}

// Transact runs fn and delivers every edit it makes as a single change
// event. If fn returns an error the buffer is restored to its previous
// contents, no event is emitted and the error is returned.
// Nested calls join the outermost transaction.
func (b *Buffer) Transact(fn func() error) error {
	if b.destroyed {
		return ErrDestroyed
	}
	if b.tx != nil {
		return fn()
	}

	tx := &transaction{
		saved:        slices.Clone(b.lines),
		oldLineCount: len(b.lines),
	}
	b.tx = tx

	err := fn()
	b.tx = nil

	if err != nil {
		b.lines = tx.saved
		b.logger.Debug("transaction rolled back",
			"changes", len(tx.changes),
			"error", err,
		)
		return err
	}

	if len(tx.changes) > 0 {
		b.emit(tx.oldLineCount, tx.changes)
	}
	return nil
}

// Subscriptions

// OnDidChange registers fn to receive change events.
func (b *Buffer) OnDidChange(fn func(ChangeEvent), opts ...event.Option) *event.Subscription {
	return b.changes.Subscribe(fn, opts...)
}

// Destroy releases the buffer. Subsequent edits and queries fail with
// ErrDestroyed.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.lines = []Line{{Ending: LineEndingNone}}
	b.changes.Clear()
}

// Internal helpers

func (b *Buffer) extent() Point {
	last := len(b.lines) - 1
	return Point{Row: last, Column: len(b.lines[last].Text)}
}

func (b *Buffer) checkPoint(op string, p Point) error {
	if b.destroyed {
		return ErrDestroyed
	}
	if p.Row < 0 || p.Row >= len(b.lines) || p.Column < 0 || p.Column > len(b.lines[p.Row].Text) {
		return &OutOfBoundsError{Op: op, Point: p, Extent: b.extent()}
	}
	return nil
}

func (b *Buffer) checkRange(op string, r Range) error {
	if err := b.checkPoint(op, r.Start); err != nil {
		return err
	}
	if err := b.checkPoint(op, r.End); err != nil {
		return err
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("buffer: %s: %s: %w", op, r, ErrRangeInvalid)
	}
	return nil
}

func (b *Buffer) textInRange(r Range) string {
	if r.Start.Row == r.End.Row {
		return b.lines[r.Start.Row].Text[r.Start.Column:r.End.Column]
	}

	var sb strings.Builder
	first := b.lines[r.Start.Row]
	sb.WriteString(first.Text[r.Start.Column:])
	sb.WriteString(first.Ending.Sequence())
	for row := r.Start.Row + 1; row < r.End.Row; row++ {
		sb.WriteString(b.lines[row].Text)
		sb.WriteString(b.lines[row].Ending.Sequence())
	}
	sb.WriteString(b.lines[r.End.Row].Text[:r.End.Column])
	return sb.String()
}

// replace splices text into the validated range r and returns the change.
// With normalize set, every inserted line break takes the buffer's ending.
func (b *Buffer) replace(r Range, text string, normalize bool) Change {
	oldText := b.textInRange(r)

	inserted := splitLines(text)
	if normalize {
		for i := 0; i < len(inserted)-1; i++ {
			inserted[i].Ending = b.lineEnding
		}
		text = joinLines(inserted)
	}

	prefix := b.lines[r.Start.Row].Text[:r.Start.Column]
	tail := b.lines[r.End.Row]
	suffix := tail.Text[r.End.Column:]

	n := len(inserted)
	repl := make([]Line, n)
	copy(repl, inserted)
	repl[0].Text = prefix + repl[0].Text
	repl[n-1].Text += suffix
	repl[n-1].Ending = tail.Ending

	var newEnd Point
	if n == 1 {
		newEnd = Point{Row: r.Start.Row, Column: r.Start.Column + len(inserted[0].Text)}
	} else {
		newEnd = Point{Row: r.Start.Row + n - 1, Column: len(inserted[n-1].Text)}
	}

	lines := make([]Line, 0, len(b.lines)-r.RowCount()+n)
	lines = append(lines, b.lines[:r.Start.Row]...)
	lines = append(lines, repl...)
	lines = append(lines, b.lines[r.End.Row+1:]...)
	b.lines = lines

	return Change{
		OldRange: r,
		NewRange: Range{Start: r.Start, End: newEnd},
		OldText:  oldText,
		NewText:  text,
	}
}

// commit either records changes in the open transaction or emits them.
func (b *Buffer) commit(oldLineCount int, changes []Change) {
	if b.tx != nil {
		b.tx.changes = append(b.tx.changes, changes...)
		return
	}
	b.emit(oldLineCount, changes)
}

func (b *Buffer) emit(oldLineCount int, changes []Change) {
	b.revision++
	b.changes.Emit(ChangeEvent{
		Changes:      changes,
		OldLineCount: oldLineCount,
		NewLineCount: len(b.lines),
		Revision:     b.revision,
	})
}

func joinLines(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Text)
		sb.WriteString(l.Ending.Sequence())
	}
	return sb.String()
}
