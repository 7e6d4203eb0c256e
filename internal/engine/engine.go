package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/engine/history"
	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/event"
	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/dirty"
	"github.com/dshills/tessera/internal/renderer/display"
	"github.com/dshills/tessera/internal/renderer/heightcache"
	"github.com/dshills/tessera/internal/renderer/measure"
)

// Re-export commonly used types for convenience.
type (
	// Point is a row/column position in the buffer.
	Point = buffer.Point

	// Range is a span between two points.
	Range = buffer.Range

	// Edit is one replacement in a batch.
	Edit = buffer.Edit

	// LineEnding specifies the line ending style.
	LineEnding = buffer.LineEnding

	// ScreenPoint is a row/column position on screen.
	ScreenPoint = display.ScreenPoint

	// MarkerID identifies a marker.
	MarkerID = marker.ID

	// DecorationID identifies a decoration.
	DecorationID = decoration.ID

	// Region is a span of dirty screen rows.
	Region = dirty.Region
)

// Re-export constants.
const (
	LineEndingLF   = buffer.LineEndingLF
	LineEndingCRLF = buffer.LineEndingCRLF
	LineEndingCR   = buffer.LineEndingCR
)

// ChangeKind says which layer of the engine changed.
type ChangeKind uint8

const (
	// ChangeText indicates buffer text changed.
	ChangeText ChangeKind = iota
	// ChangeScreen indicates screen rows were rebuilt.
	ChangeScreen
	// ChangeDecoration indicates a decoration update.
	ChangeDecoration
)

// String returns the kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeText:
		return "text"
	case ChangeScreen:
		return "screen"
	case ChangeDecoration:
		return "decoration"
	default:
		return "unknown"
	}
}

// ChangeEvent is delivered to OnDidChange subscribers. Only the field named
// by Kind is set. For an edit the ChangeText event comes first, followed by
// the screen and decoration changes it caused.
type ChangeEvent struct {
	Kind       ChangeKind
	Text       buffer.ChangeEvent
	Screen     display.ScreenChange
	Decoration decoration.UpdateEvent
}

// Engine is one editor session: a buffer with its markers, display,
// decorations, block heights, measurement queue and dirty rows.
//
// An Engine must be driven from a single goroutine. The one exception is
// ResolveMeasurement, which collaborators may call from anywhere; resolved
// measurements take effect on the next ProcessMeasurements.
type Engine struct {
	id     uuid.UUID
	logger *slog.Logger

	// Core components
	buf         *buffer.Buffer
	markers     *marker.Index
	display     *display.Display
	heights     *heightcache.Cache
	decorations *decoration.Manager
	scheduler   *measure.Scheduler
	dirty       *dirty.Tracker
	history     *history.History

	// Configuration
	lineEnding      *buffer.LineEnding
	tabLength       int
	softWrap        int
	wordWrap        bool
	hangingIndent   int
	foldPlaceholder string
	lineHeight      float64
	charWidth       float64
	nonBreaking     display.NonBreakingFunc
	concurrency     int
	maxUndo         int
	readOnly        bool

	// Initialization
	initContent string

	subs    event.Disposables
	changes event.Emitter[ChangeEvent]
	closed  bool

	// Screen and decoration changes raised while a text change is being
	// dispatched wait here until the text event has gone out.
	holding bool
	held    []ChangeEvent
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := newEngine(opts)
	e.init(buffer.New(e.initContent, e.bufferOptions(e.initContent)...))
	return e
}

// NewFromReader creates an Engine from an io.Reader.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)
	e.init(buffer.New(text, e.bufferOptions(text)...))
	return e, nil
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		id:          uuid.New(),
		logger:      slog.New(slog.DiscardHandler),
		tabLength:   DefaultTabLength,
		lineHeight:  DefaultLineHeight,
		charWidth:   DefaultCharWidth,
		concurrency: DefaultConcurrency,
		maxUndo:     history.DefaultMaxEntries,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("session", e.id.String())
	return e
}

func (e *Engine) bufferOptions(text string) []buffer.Option {
	opts := []buffer.Option{buffer.WithLogger(e.logger)}
	if e.lineEnding != nil {
		return append(opts, buffer.WithLineEnding(*e.lineEnding))
	}
	return append(opts, buffer.WithDetectedLineEnding(text))
}

// init wires the components in subscription order: markers, display,
// decorations, then the engine's own observers.
func (e *Engine) init(buf *buffer.Buffer) {
	e.buf = buf
	e.markers = marker.NewIndex(buf, marker.WithLogger(e.logger))

	displayOpts := []display.Option{
		display.WithTabLength(e.tabLength),
		display.WithSoftWrap(e.softWrap),
		display.WithWordWrap(e.wordWrap),
		display.WithHangingIndent(e.hangingIndent),
		display.WithLineHeight(e.lineHeight),
		display.WithCharWidth(e.charWidth),
		display.WithLogger(e.logger),
	}
	if e.foldPlaceholder != "" {
		displayOpts = append(displayOpts, display.WithFoldPlaceholder(e.foldPlaceholder))
	}
	if e.nonBreaking != nil {
		displayOpts = append(displayOpts, display.WithNonBreakingSpans(e.nonBreaking))
	}
	e.display = display.New(buf, e.markers, displayOpts...)

	e.heights = heightcache.New(heightcache.WithLineHeight(e.lineHeight))
	e.decorations = decoration.NewManager(e.markers, e.display, e.heights, decoration.WithLogger(e.logger))
	e.display.SetHeightSource(e.decorations)

	e.scheduler = measure.NewScheduler(
		measure.WithConcurrency(e.concurrency),
		measure.WithLogger(e.logger),
	)
	e.dirty = dirty.NewTracker(0)
	e.history = history.New(buf, history.WithMaxEntries(e.maxUndo), history.WithLogger(e.logger))

	e.subs.Add(
		// Ahead of the marker index, so everything an edit derives is held.
		buf.OnDidChange(e.holdChanges, event.WithPriority(event.PriorityIndex-1)),
		buf.OnDidChange(e.handleTextChange),
		e.display.OnDidChangeScreen(e.handleScreenChange),
		e.decorations.OnDidUpdate(e.handleDecorationUpdate),
	)
	e.logger.Debug("engine created", "rows", buf.LineCount(), "ending", buf.LineEnding().String())
}

// ID returns the session id.
func (e *Engine) ID() string {
	return e.id.String()
}

// Close releases every component. Later edits fail with ErrClosed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.subs.Dispose()
	e.history.Close()
	e.scheduler.Close()
	e.decorations.Destroy()
	e.display.Destroy()
	e.markers.Close()
	e.buf.Destroy()
	e.changes.Clear()
	e.logger.Debug("engine closed")
}

// OnDidChange registers fn for text, screen and decoration changes. It runs
// after every internal subscriber has caught up.
func (e *Engine) OnDidChange(fn func(ChangeEvent), opts ...event.Option) *event.Subscription {
	return e.changes.Subscribe(fn, opts...)
}

// Buffer returns the underlying buffer.
func (e *Engine) Buffer() *buffer.Buffer { return e.buf }

// Markers returns the marker index.
func (e *Engine) Markers() *marker.Index { return e.markers }

// Display returns the display translator.
func (e *Engine) Display() *display.Display { return e.display }

// Decorations returns the decoration manager.
func (e *Engine) Decorations() *decoration.Manager { return e.decorations }

// History returns the undo history.
func (e *Engine) History() *history.History { return e.history }

// Heights returns the block height cache.
func (e *Engine) Heights() *heightcache.Cache { return e.heights }

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full buffer content.
func (e *Engine) Text() string {
	return e.buf.Text()
}

// LineForRow returns the text of row without its line ending.
func (e *Engine) LineForRow(row int) (string, error) {
	return e.buf.LineForRow(row)
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() int {
	return e.buf.LineCount()
}

// Extent returns the position after the last character.
func (e *Engine) Extent() Point {
	return e.buf.Extent()
}

// Revision returns the buffer revision.
func (e *Engine) Revision() uint64 {
	return e.buf.Revision()
}

// IsReadOnly reports whether edits are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// ============================================================================
// Write Operations
// ============================================================================

// SetTextInRange replaces r with text and returns the range of the new text.
func (e *Engine) SetTextInRange(r Range, text string) (Range, error) {
	if err := e.checkWritable(); err != nil {
		return Range{}, err
	}
	return e.buf.SetTextInRange(r, text)
}

// Insert inserts text at p.
func (e *Engine) Insert(p Point, text string) (Range, error) {
	if err := e.checkWritable(); err != nil {
		return Range{}, err
	}
	return e.buf.Insert(p, text)
}

// Delete removes r.
func (e *Engine) Delete(r Range) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	return e.buf.Delete(r)
}

// ApplyEdits applies a batch of non-overlapping edits as one change.
func (e *Engine) ApplyEdits(edits []Edit) ([]Range, error) {
	if err := e.checkWritable(); err != nil {
		return nil, err
	}
	return e.buf.ApplyEdits(edits)
}

// Transact groups the edits made by fn into one change.
func (e *Engine) Transact(fn func() error) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	return e.buf.Transact(fn)
}

// Undo reverts the last change.
func (e *Engine) Undo() error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	return e.history.Undo()
}

// Redo applies the last undone change again.
func (e *Engine) Redo() error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	return e.history.Redo()
}

func (e *Engine) checkWritable() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.readOnly {
		return ErrReadOnly
	}
	return nil
}

// checkOpen guards operations that leave the text alone. Markers, folds
// and decorations stay available on read-only engines.
func (e *Engine) checkOpen() error {
	if e.closed {
		return ErrClosed
	}
	return nil
}

// ============================================================================
// Markers, Folds and Decorations
// ============================================================================

// MarkRange creates a marker over r.
func (e *Engine) MarkRange(r Range, opts ...marker.Option) (MarkerID, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.markers.Create(r, opts...)
}

// DestroyMarker destroys a marker and its decorations.
func (e *Engine) DestroyMarker(id MarkerID) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.markers.Destroy(id)
}

// FoldBufferRange folds r.
func (e *Engine) FoldBufferRange(r Range) (MarkerID, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.display.FoldBufferRange(r)
}

// FoldBufferRow folds rows row+1 through endRow under row.
func (e *Engine) FoldBufferRow(row, endRow int) (MarkerID, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.display.FoldBufferRow(row, endRow)
}

// Unfold removes a fold.
func (e *Engine) Unfold(id MarkerID) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.display.Unfold(id)
}

// UnfoldAll removes every fold. It returns nil on a closed engine.
func (e *Engine) UnfoldAll() []Range {
	if e.closed {
		return nil
	}
	return e.display.UnfoldAll()
}

// DecorateMarker decorates a marker in the default layer. A block
// decoration is queued for measurement.
func (e *Engine) DecorateMarker(id MarkerID, kind decoration.Kind, props decoration.Properties) (DecorationID, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.decorations.DecorateMarker(id, kind, props)
}

// DecorateMarkerInLayer decorates a marker in layer.
func (e *Engine) DecorateMarkerInLayer(id MarkerID, layer decoration.LayerID, kind decoration.Kind, props decoration.Properties) (DecorationID, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.decorations.DecorateMarkerInLayer(id, layer, kind, props)
}

// DestroyDecoration removes a decoration and cancels its measurement. It
// reports false on a closed engine.
func (e *Engine) DestroyDecoration(id DecorationID) bool {
	if e.closed {
		return false
	}
	return e.decorations.DestroyDecoration(id)
}

// DecorationsForScreenRowRange returns the decorations on screen rows
// [start, end].
func (e *Engine) DecorationsForScreenRowRange(start, end int) []decoration.Decoration {
	return e.decorations.DecorationsForScreenRowRange(start, end)
}

// ============================================================================
// Coordinates
// ============================================================================

// ScreenPositionForBufferPosition maps a buffer position to the screen.
func (e *Engine) ScreenPositionForBufferPosition(p Point) (ScreenPoint, error) {
	return e.display.ScreenPositionForBufferPosition(p)
}

// BufferPositionForScreenPosition maps a screen position to the buffer.
func (e *Engine) BufferPositionForScreenPosition(sp ScreenPoint, opts ...display.ClipOption) Point {
	return e.display.BufferPositionForScreenPosition(sp, opts...)
}

// PixelTopForScreenRow returns the pixel top of a screen row including the
// heights of the blocks above it.
func (e *Engine) PixelTopForScreenRow(row int) float64 {
	return e.display.PixelTopForScreenRow(row)
}

// ScreenRowForPixelTop returns the screen row shown at pixel offset top.
func (e *Engine) ScreenRowForPixelTop(top float64) int {
	return e.display.ScreenRowForPixelTop(top)
}

// ScreenLineCount returns the number of screen rows.
func (e *Engine) ScreenLineCount() int {
	return e.display.ScreenLineCount()
}

// ============================================================================
// Measurement
// ============================================================================

// PendingMeasurements returns the blocks waiting to be measured.
func (e *Engine) PendingMeasurements() []measure.Request {
	return e.scheduler.Pending()
}

// ResolveMeasurement records the measured size for ticket t. It is safe for
// concurrent use. Results for cancelled or superseded tickets are dropped.
func (e *Engine) ResolveMeasurement(t measure.Ticket, width, height float64) error {
	err := e.scheduler.Resolve(t, width, height)
	var race *measure.RaceError
	if errors.As(err, &race) {
		e.logger.Debug("measurement dropped", "ticket", t, "error", err)
		return nil
	}
	return err
}

// MeasureAll measures every pending block with m and applies the results.
func (e *Engine) MeasureAll(ctx context.Context, m measure.Measurer) error {
	if err := e.scheduler.MeasureAll(ctx, m); err != nil {
		return err
	}
	e.ProcessMeasurements()
	return nil
}

// ProcessMeasurements applies resolved measurements and returns how many
// reached a live block.
func (e *Engine) ProcessMeasurements() int {
	applied := 0
	for _, r := range e.scheduler.Drain() {
		if e.decorations.SetDimensionsForDecoration(r.Decoration, r.Width, r.Height) {
			applied++
		}
	}
	return applied
}

func (e *Engine) availableWidth() float64 {
	if e.display.SoftWrapColumn() == 0 {
		return 0
	}
	return float64(e.display.SoftWrapColumn()) * e.display.CharWidth()
}

// ============================================================================
// Dirty Rows
// ============================================================================

// DirtyRegions returns the screen rows changed since the last take.
func (e *Engine) DirtyRegions() []Region {
	e.dirty.SetRowCount(e.display.ScreenLineCount())
	return e.dirty.DirtyRegions()
}

// TakeDirtyRegions returns the screen rows changed since the last take and
// clears them.
func (e *Engine) TakeDirtyRegions() []Region {
	e.dirty.SetRowCount(e.display.ScreenLineCount())
	return e.dirty.Take()
}

// ============================================================================
// Event handlers
// ============================================================================

func (e *Engine) holdChanges(buffer.ChangeEvent) {
	e.holding = true
}

func (e *Engine) handleTextChange(ev buffer.ChangeEvent) {
	e.holding = false
	e.changes.Emit(ChangeEvent{Kind: ChangeText, Text: ev})
	held := e.held
	e.held = nil
	for _, c := range held {
		e.changes.Emit(c)
	}
}

func (e *Engine) emitChange(c ChangeEvent) {
	if e.holding {
		e.held = append(e.held, c)
		return
	}
	e.changes.Emit(c)
}

func (e *Engine) handleScreenChange(c display.ScreenChange) {
	e.dirty.MarkScreenChange(c)
	e.emitChange(ChangeEvent{Kind: ChangeScreen, Screen: c})
}

func (e *Engine) handleDecorationUpdate(ev decoration.UpdateEvent) {
	if ev.Block {
		switch ev.Kind {
		case decoration.UpdateAdded, decoration.UpdateNeedsMeasure:
			if d, ok := e.decorations.Get(ev.ID); ok {
				e.scheduler.Request(ev.ID, d.Properties.Item, e.availableWidth())
			}
		case decoration.UpdateRemoved:
			e.scheduler.Cancel(ev.ID)
		}
	}
	e.dirty.MarkDecorationUpdate(ev)
	e.emitChange(ChangeEvent{Kind: ChangeDecoration, Decoration: ev})
}
