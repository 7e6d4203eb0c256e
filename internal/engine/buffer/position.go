package buffer

import "fmt"

// Point represents a row and column position.
// Both Row and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Row    int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Row, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Row < other.Row {
		return -1
	}
	if p.Row > other.Row {
		return 1
	}
	if p.Column < other.Column {
		return -1
	}
	if p.Column > other.Column {
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// IsZero returns true if this is the zero point (0:0).
func (p Point) IsZero() bool {
	return p.Row == 0 && p.Column == 0
}

// Traverse returns the point reached by moving from p by the given
// extent. A zero-row extent moves along the line; otherwise the result lands
// on a later row at the extent's column.
func (p Point) Traverse(extent Point) Point {
	if extent.Row == 0 {
		return Point{Row: p.Row, Column: p.Column + extent.Column}
	}
	return Point{Row: p.Row + extent.Row, Column: extent.Column}
}

// TraversalFrom returns the extent that, traversed from origin, reaches p.
// p must not precede origin.
func (p Point) TraversalFrom(origin Point) Point {
	if p.Row == origin.Row {
		return Point{Column: p.Column - origin.Column}
	}
	return Point{Row: p.Row - origin.Row, Column: p.Column}
}

// MinPoint returns the earlier of two points.
func MinPoint(a, b Point) Point {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxPoint returns the later of two points.
func MaxPoint(a, b Point) Point {
	if b.After(a) {
		return b
	}
	return a
}

// Range represents a span between two points.
// Start is inclusive, End is exclusive: [Start, End).
type Range struct {
	Start Point
	End   Point
}

// NewRange creates a range from two points in either order.
func NewRange(a, b Point) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// PointRange returns an empty range at p.
func PointRange(p Point) Range {
	return Range{Start: p, End: p}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// IsEmpty returns true if start equals end.
func (r Range) IsEmpty() bool {
	return r.Start.Compare(r.End) == 0
}

// IsValid returns true if start <= end.
func (r Range) IsValid() bool {
	return r.Start.Compare(r.End) <= 0
}

// IsSingleLine returns true if the range spans only one row.
func (r Range) IsSingleLine() bool {
	return r.Start.Row == r.End.Row
}

// Contains returns true if p lies within [Start, End).
func (r Range) Contains(p Point) bool {
	return p.Compare(r.Start) >= 0 && p.Compare(r.End) < 0
}

// ContainsRange returns true if other lies entirely inside r.
func (r Range) ContainsRange(other Range) bool {
	return other.Start.Compare(r.Start) >= 0 && other.End.Compare(r.End) <= 0
}

// Intersects returns true if the ranges share a point, counting touching
// endpoints.
func (r Range) Intersects(other Range) bool {
	return r.Start.Compare(other.End) <= 0 && other.Start.Compare(r.End) <= 0
}

// Overlaps returns true if the ranges share at least one character.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Union returns the smallest range containing both ranges.
func (r Range) Union(other Range) Range {
	return Range{Start: MinPoint(r.Start, other.Start), End: MaxPoint(r.End, other.End)}
}

// RowCount returns the number of rows the range touches.
func (r Range) RowCount() int {
	return r.End.Row - r.Start.Row + 1
}

// Extent returns the traversal from Start to End.
func (r Range) Extent() Point {
	return r.End.TraversalFrom(r.Start)
}
