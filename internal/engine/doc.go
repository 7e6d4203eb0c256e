// Package engine provides the editor session facade for Tessera.
//
// The engine package combines a buffer with everything that is derived from
// it: the marker index, the display translator with its folds and soft
// wrap, the decoration manager, the block height cache, the measurement
// scheduler and the dirty row tracker.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - buffer: line-addressed text with change events
//   - marker: ranges that follow edits
//   - history: undo and redo of buffer changes
//   - renderer/display: buffer to screen coordinates through folds and wraps
//   - renderer/decoration: decorations attached to markers
//   - renderer/heightcache: pixel heights of block decorations
//   - renderer/measure: off-screen measurement tickets
//   - renderer/dirty: screen rows to redraw
//
// Every edit reaches the subscribers in a fixed order. The marker index
// runs first, then the display, then the decoration manager, then the
// engine's own observers and anything registered with OnDidChange.
//
// # Thread Safety
//
// An Engine belongs to one goroutine. ResolveMeasurement is the only method
// that may be called from other goroutines; the results it records are
// applied when the owner calls ProcessMeasurements.
//
// # Basic Usage
//
//	e := engine.New(engine.WithContent("func main() {\n\tprintln()\n}"), engine.WithSoftWrap(40))
//	defer e.Close()
//
//	// Insert text
//	e.Insert(engine.Point{Row: 1, Column: 1}, "x := 1\n\t")
//
//	// Fold the body
//	e.FoldBufferRange(engine.Range{Start: engine.Point{Row: 0, Column: 13}, End: engine.Point{Row: 3, Column: 0}})
//
//	// Read screen coordinates
//	sp, _ := e.ScreenPositionForBufferPosition(engine.Point{Row: 3, Column: 1})
//
// # Block Decorations
//
// A block decoration reserves vertical space next to a row. Its height is
// unknown until a collaborator measures it:
//
//	id, _ := e.MarkRange(engine.Range{Start: engine.Point{Row: 2}, End: engine.Point{Row: 2}})
//	e.DecorateMarker(id, decoration.KindBlock, decoration.Properties{Item: widget})
//
//	for _, req := range e.PendingMeasurements() {
//	    go func() {
//	        w, h := measureWidget(req.Item)
//	        e.ResolveMeasurement(req.Ticket, w, h)
//	    }()
//	}
//
//	// Later, on the owner goroutine
//	e.ProcessMeasurements()
//	regions := e.TakeDirtyRegions()
//
// # Read-Only Mode
//
// Create a read-only engine that rejects write operations:
//
//	e := engine.New(
//	    engine.WithContent("read-only content"),
//	    engine.WithReadOnly(),
//	)
//
//	_, err := e.Insert(engine.Point{}, "text")
//	// err == engine.ErrReadOnly
//
// # Error Handling
//
// The package defines two errors of its own:
//
//   - ErrReadOnly: Write operation on read-only engine
//   - ErrClosed: Operation on a closed engine
//
// Errors from the buffer, marker index, display and decoration manager are
// passed through unchanged and can be matched with errors.Is.
package engine
