// Package display translates between buffer coordinates and screen
// coordinates.
//
// A Display groups buffer rows into display lines. A display line is one
// buffer row, or several rows joined by folds: each fold collapses a buffer
// range into a single placeholder. Every display line is laid out with the
// layout package and occupies one screen row per wrapped segment.
//
// Layouts are computed on demand and the screen-row offset of each display
// line is kept as a prefix that is extended lazily, so the cost of a query
// is proportional to the rows actually looked at. Buffer edits replace only
// the display lines they touch.
//
// Folds are markers owned by the Display. They never overlap: folding a
// range that overlaps existing folds merges them, and a fold whose text is
// deleted is removed.
//
//	disp := display.New(buf, markers, display.WithSoftWrap(80))
//	sp, _ := disp.ScreenPositionForBufferPosition(buffer.Point{Row: 10, Column: 4})
//	p := disp.BufferPositionForScreenPosition(sp)
package display
