// Package marker tracks ranges of a buffer across edits.
//
// A marker is a point or range anchored in a buffer with a stable ID. The
// Index subscribes to its buffer at event.PriorityIndex, so every marker has
// been rewritten by the time any other component sees a change event.
//
// End Policies:
//
// Each end of a marker carries an EndPolicy deciding what happens when text
// is inserted or replaced exactly at, or across, that end:
//
//   - Stay: boundary insertions are excluded (default)
//   - Grow: text inserted at either boundary becomes part of the marker
//   - Shrink: replacements straddling an end give up the overlapped text
//   - Surround: like Grow, and also absorbs adjacent replacements
//
// Positions strictly before a change never move; positions strictly after
// it shift by the change's extent. A position strictly inside a replaced
// range moves to the start of the new text under Stay and to its end under
// Grow.
//
// Invalidation:
//
// An InvalidationStrategy marks a marker invalid when a change hits it in a
// particular way (surrounds it, overlaps an end, reaches inside, or merely
// touches it). Invalid markers keep tracking text but report Valid() ==
// false; consumers such as the decoration manager skip them.
//
// Basic usage:
//
//	idx := marker.NewIndex(buf)
//	id, _ := idx.CreatePoint(buffer.Point{Row: 1, Column: 1})
//
//	buf.Insert(buffer.Point{Row: 1, Column: 0}, "XY")
//
//	r, _ := idx.Range(id) // (1:3)
//
// Thread Safety:
//
// An Index belongs to the goroutine that owns its buffer.
package marker
