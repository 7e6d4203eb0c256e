// Package buffer provides the line-addressed text store at the bottom of the
// editor core.
//
// A Buffer holds an ordered list of lines. Each line records its own text
// and the line ending that terminated it; the final line never has one, so a
// buffer always has at least one (possibly empty) line. Positions are
// Point{Row, Column} pairs where Column is a byte offset into the line's
// UTF-8 text.
//
// Every logical edit produces exactly one ChangeEvent, dispatched
// synchronously to subscribers in priority order before the editing call
// returns:
//
//	buf := buffer.New("abc\ndef\nghi")
//	buf.OnDidChange(func(ev buffer.ChangeEvent) {
//	    span := ev.RowSpan()
//	    // rows span.Start..span.OldEnd were replaced by span.Start..span.NewEnd
//	})
//
//	buf.Insert(buffer.Point{Row: 1, Column: 0}, "XY")
//
// Batches:
//
// ApplyEdits validates every edit (bounds and mutual overlap) before the
// first mutation and emits a single event. Transact coalesces any number of
// edits into one event and restores the previous contents if the callback
// fails.
//
// Thread Safety:
//
// A Buffer is owned by a single goroutine. Subscribers run inside the
// editing call and may query the buffer freely.
package buffer
