package marker

import "github.com/dshills/tessera/internal/engine/buffer"

// Point is an alias for buffer.Point for convenience.
type Point = buffer.Point

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Role says which end of a range a point is.
type Role uint8

const (
	RoleStart Role = iota
	RoleEnd
)

// TransformPoint updates one marker end after a change.
//
// Transformation rules, with the change replacing [s, e) by [s, ne):
//   - p before s: unchanged
//   - p after e: shifted by the change's extent
//   - insertion exactly at p: Grow and Surround take the inserted text,
//     Stay and Shrink leave it outside the marker
//   - p strictly inside [s, e): Stay moves to s and Grow to ne; Shrink
//     pulls the end toward the other end (start to ne, end to s) and
//     Surround pushes it outward (start to s, end to ne)
//   - p on s or e of a replacement: the end keeps to the surviving side,
//     only Surround absorbs the adjacent replacement
func TransformPoint(p Point, c buffer.Change, role Role, policy EndPolicy) Point {
	s, e := c.OldRange.Start, c.OldRange.End
	ne := c.NewRange.End

	// Change is entirely after p
	if p.Before(s) {
		return p
	}

	// Change is entirely before p: shift by the change's extent
	if p.After(e) {
		return c.ShiftPoint(p)
	}

	include := policy == Grow || policy == Surround

	// Insertion exactly at p
	if s == e {
		if role == RoleStart {
			if include {
				return s
			}
			return ne
		}
		if include {
			return ne
		}
		return s
	}

	switch {
	case p == s:
		if role == RoleEnd && policy == Surround {
			return ne
		}
		return s
	case p == e:
		if role == RoleStart && policy == Surround {
			return s
		}
		return ne
	}

	// Change spans p
	switch policy {
	case Grow:
		return ne
	case Shrink:
		if role == RoleStart {
			return ne
		}
		return s
	case Surround:
		if role == RoleStart {
			return s
		}
		return ne
	}
	return s
}

// TransformRange updates both ends of a range after a change. A start that
// would pass its end is pulled back onto it.
func TransformRange(r Range, c buffer.Change, startPolicy, endPolicy EndPolicy) Range {
	start := TransformPoint(r.Start, c, RoleStart, startPolicy)
	end := TransformPoint(r.End, c, RoleEnd, endPolicy)
	if r.IsEmpty() {
		// A point marker moves as a unit; its end rule decides.
		return buffer.PointRange(end)
	}
	if start.After(end) {
		start = end
	}
	return Range{Start: start, End: end}
}

// Invalidates reports whether change c, expressed in the same coordinates as
// r, invalidates a marker covering r under strategy s.
func Invalidates(s InvalidationStrategy, r Range, c buffer.Change) bool {
	cs, ce := c.OldRange.Start, c.OldRange.End
	ms, me := r.Start, r.End

	surround := cs.Before(ms) && me.Before(ce)
	switch s {
	case InvalidateNever:
		return false
	case InvalidateSurround:
		return surround
	case InvalidateOverlap:
		startInside := cs.Before(ms) && ms.Before(ce)
		endInside := cs.Before(me) && me.Before(ce)
		return surround || startInside || endInside
	case InvalidateInside:
		if r.IsEmpty() {
			return cs.Before(ms) && ms.Before(ce)
		}
		return cs.Before(me) && ce.After(ms)
	case InvalidateTouch:
		return cs.Compare(me) <= 0 && ce.Compare(ms) >= 0
	}
	return false
}

// TransformMarker applies one change to a marker snapshot and reports
// whether the change touched it.
func TransformMarker(m Marker, c buffer.Change) (Marker, bool) {
	touched := c.OldRange.Intersects(m.Range)
	if m.Valid && Invalidates(m.Invalidate, m.Range, c) {
		m.Valid = false
	}
	m.Range = TransformRange(m.Range, c, m.StartPolicy, m.EndPolicy)
	return m, touched
}
