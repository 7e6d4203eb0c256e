// Package dirty tracks which screen rows need to be laid out and painted
// again. Regions come from display screen changes and decoration updates
// and are coalesced so a painter sees a short list of row spans.
package dirty

import "fmt"

// Region is a span of screen rows that needs redrawing.
type Region struct {
	// StartRow is the first row of the region (inclusive).
	StartRow int

	// EndRow is the last row of the region (inclusive).
	// Ignored when ToEnd is true.
	EndRow int

	// ToEnd indicates the region runs to the last screen row, because the
	// rows below StartRow moved.
	ToEnd bool
}

// NewRowRegion creates a region covering rows start through end.
func NewRowRegion(start, end int) Region {
	if end < start {
		start, end = end, start
	}
	return Region{StartRow: max(start, 0), EndRow: end}
}

// NewSingleRow creates a region for a single row.
func NewSingleRow(row int) Region {
	return Region{StartRow: row, EndRow: row}
}

// NewToEndRegion creates a region from start to the last screen row.
func NewToEndRegion(start int) Region {
	return Region{StartRow: max(start, 0), EndRow: start, ToEnd: true}
}

// IsEmpty returns true if the region covers no rows.
func (r Region) IsEmpty() bool {
	if r.StartRow < 0 {
		return true
	}
	return !r.ToEnd && r.StartRow > r.EndRow
}

// RowCount returns the number of rows covered, or -1 for a region that
// runs to the end.
func (r Region) RowCount() int {
	switch {
	case r.ToEnd:
		return -1
	case r.IsEmpty():
		return 0
	}
	return r.EndRow - r.StartRow + 1
}

// ContainsRow returns true if the region covers row.
func (r Region) ContainsRow(row int) bool {
	if row < r.StartRow {
		return false
	}
	return r.ToEnd || row <= r.EndRow
}

// Overlaps returns true if two regions share a row.
func (r Region) Overlaps(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	if !r.ToEnd && r.EndRow < other.StartRow {
		return false
	}
	if !other.ToEnd && other.EndRow < r.StartRow {
		return false
	}
	return true
}

// Adjacent returns true if one region starts right after the other ends.
func (r Region) Adjacent(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return (!r.ToEnd && r.EndRow+1 == other.StartRow) ||
		(!other.ToEnd && other.EndRow+1 == r.StartRow)
}

// Merge combines two regions into one covering both. It reports false when
// the regions neither overlap nor touch.
func (r Region) Merge(other Region) (Region, bool) {
	if !r.Overlaps(other) && !r.Adjacent(other) {
		return Region{}, false
	}
	merged := Region{
		StartRow: min(r.StartRow, other.StartRow),
		EndRow:   max(r.EndRow, other.EndRow),
		ToEnd:    r.ToEnd || other.ToEnd,
	}
	return merged, true
}

// Expand extends the region to include row.
func (r Region) Expand(row int) Region {
	result := r
	result.StartRow = min(result.StartRow, row)
	result.EndRow = max(result.EndRow, row)
	return result
}

// Intersect returns the rows two regions share, or an empty region.
func (r Region) Intersect(other Region) Region {
	if !r.Overlaps(other) {
		return Region{StartRow: 1, EndRow: 0}
	}
	result := Region{StartRow: max(r.StartRow, other.StartRow), ToEnd: r.ToEnd && other.ToEnd}
	switch {
	case r.ToEnd && other.ToEnd:
		result.EndRow = max(r.EndRow, other.EndRow)
	case r.ToEnd:
		result.EndRow = other.EndRow
	case other.ToEnd:
		result.EndRow = r.EndRow
	default:
		result.EndRow = min(r.EndRow, other.EndRow)
	}
	return result
}

// Clip bounds the region to rows [0, rowCount). A region that runs to the
// end keeps ToEnd but gets a concrete EndRow.
func (r Region) Clip(rowCount int) Region {
	if rowCount <= 0 || r.StartRow >= rowCount {
		return Region{StartRow: 1, EndRow: 0}
	}
	result := r
	if r.ToEnd || r.EndRow >= rowCount {
		result.EndRow = rowCount - 1
	}
	return result
}

// Equals returns true if two regions are identical.
func (r Region) Equals(other Region) bool {
	return r == other
}

// String returns "[start,end]" or "[start,…)" for a region to the end.
func (r Region) String() string {
	if r.ToEnd {
		return fmt.Sprintf("[%d,…)", r.StartRow)
	}
	return fmt.Sprintf("[%d,%d]", r.StartRow, r.EndRow)
}
