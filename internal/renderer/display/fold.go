package display

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/engine/marker"
)

// FoldProperty marks fold markers in the marker index.
const FoldProperty = "display.fold"

// Fold is a collapsed buffer range.
type Fold struct {
	ID    marker.ID
	Range buffer.Range
}

type foldEntry struct {
	id marker.ID
	r  buffer.Range
}

func comparePoints(a, b any) int {
	return a.(buffer.Point).Compare(b.(buffer.Point))
}

// FoldBufferRange collapses r into a placeholder. Existing folds that
// overlap r are merged into the new fold. Folding a range that an existing
// fold already covers returns that fold.
func (d *Display) FoldBufferRange(r buffer.Range) (marker.ID, error) {
	if d.destroyed {
		return 0, ErrDestroyed
	}
	if err := d.buf.ValidateRange(r); err != nil {
		return 0, fmt.Errorf("display: fold: %w", err)
	}
	if r.IsEmpty() {
		return 0, fmt.Errorf("display: fold %s: %w", r, ErrInvalidFold)
	}

	merged := r
	var absorbed []foldEntry
	for _, f := range d.foldEntries() {
		if f.r.ContainsRange(r) {
			return f.id, nil
		}
		if f.r.Overlaps(r) {
			absorbed = append(absorbed, f)
			merged = merged.Union(f.r)
		}
	}

	id, err := d.markers.Create(merged,
		marker.WithPolicy(marker.Stay),
		marker.WithInvalidate(marker.InvalidateNever),
		marker.WithProperties(map[string]any{FoldProperty: true}),
	)
	if err != nil {
		return 0, fmt.Errorf("display: fold: %w", err)
	}
	for _, f := range absorbed {
		d.removeFold(f)
	}
	d.addFold(foldEntry{id: id, r: merged})

	d.logger.Debug("fold created", "id", id, "range", merged.String(), "merged", len(absorbed))
	d.rebuildRows(merged.Start.Row, merged.End.Row, ReasonFold)
	return id, nil
}

// FoldBufferRow folds rows row+1 through endRow under row, leaving row's own
// text visible.
func (d *Display) FoldBufferRow(row, endRow int) (marker.ID, error) {
	if endRow <= row {
		return 0, fmt.Errorf("display: fold rows %d-%d: %w", row, endRow, ErrInvalidFold)
	}
	r := buffer.Range{
		Start: buffer.Point{Row: row, Column: d.buf.LineLength(row)},
		End:   buffer.Point{Row: endRow, Column: d.buf.LineLength(endRow)},
	}
	return d.FoldBufferRange(r)
}

// Unfold removes the fold id.
func (d *Display) Unfold(id marker.ID) error {
	r, ok := d.foldRanges[id]
	if !ok {
		return fmt.Errorf("display: unfold %d: %w", id, ErrInvalidFold)
	}
	d.removeFold(foldEntry{id: id, r: r})
	d.rebuildRows(r.Start.Row, r.End.Row, ReasonFold)
	return nil
}

// UnfoldBufferRow removes every fold that starts, ends or passes through
// row and returns their ranges.
func (d *Display) UnfoldBufferRow(row int) []buffer.Range {
	var out []buffer.Range
	for _, f := range d.foldEntries() {
		if f.r.Start.Row <= row && row <= f.r.End.Row {
			out = append(out, f.r)
			d.removeFold(f)
		}
	}
	d.rebuildRanges(out)
	return out
}

// UnfoldAll removes every fold.
func (d *Display) UnfoldAll() []buffer.Range {
	var out []buffer.Range
	for _, f := range d.foldEntries() {
		out = append(out, f.r)
		d.removeFold(f)
	}
	d.rebuildRanges(out)
	return out
}

// DestroyFoldsIntersecting removes every fold that intersects r, including
// folds that only touch it.
func (d *Display) DestroyFoldsIntersecting(r buffer.Range) []buffer.Range {
	var out []buffer.Range
	for _, f := range d.foldEntries() {
		if f.r.Intersects(r) {
			out = append(out, f.r)
			d.removeFold(f)
		}
	}
	d.rebuildRanges(out)
	return out
}

// IsFoldedAtBufferRow reports whether any fold starts, ends or passes
// through row.
func (d *Display) IsFoldedAtBufferRow(row int) bool {
	k, v := d.folds.Floor(buffer.Point{Row: row, Column: math.MaxInt})
	if k == nil {
		return false
	}
	return v.(foldEntry).r.End.Row >= row
}

// Folds returns every fold ordered by start.
func (d *Display) Folds() []Fold {
	entries := d.foldEntries()
	out := make([]Fold, len(entries))
	for i, f := range entries {
		out[i] = Fold{ID: f.id, Range: f.r}
	}
	return out
}

// FoldContaining returns the fold whose range contains p.
func (d *Display) FoldContaining(p buffer.Point) (Fold, bool) {
	k, v := d.folds.Floor(p)
	if k == nil {
		return Fold{}, false
	}
	f := v.(foldEntry)
	if !f.r.Contains(p) {
		return Fold{}, false
	}
	return Fold{ID: f.id, Range: f.r}, true
}

// IsFold reports whether id is one of this display's folds.
func (d *Display) IsFold(id marker.ID) bool {
	_, ok := d.foldRanges[id]
	return ok
}

func (d *Display) foldEntries() []foldEntry {
	out := make([]foldEntry, 0, d.folds.Size())
	it := d.folds.Iterator()
	for it.Next() {
		out = append(out, it.Value().(foldEntry))
	}
	return out
}

// nextFold returns the first fold starting at or after p.
func (d *Display) nextFold(p buffer.Point) (foldEntry, bool) {
	k, v := d.folds.Ceiling(p)
	if k == nil {
		return foldEntry{}, false
	}
	return v.(foldEntry), true
}

func (d *Display) addFold(f foldEntry) {
	d.foldRanges[f.id] = f.r
	d.folds.Put(f.r.Start, f)
}

// removeFold forgets f before destroying its marker so that the destroy
// notification is not mistaken for an external one.
func (d *Display) removeFold(f foldEntry) {
	delete(d.foldRanges, f.id)
	d.folds.Remove(f.r.Start)
	_ = d.markers.Destroy(f.id)
}

func (d *Display) rebuildRanges(ranges []buffer.Range) {
	if len(ranges) == 0 {
		return
	}
	lo, hi := ranges[0].Start.Row, ranges[0].End.Row
	for _, r := range ranges[1:] {
		lo = min(lo, r.Start.Row)
		hi = max(hi, r.End.Row)
	}
	d.rebuildRows(lo, hi, ReasonFold)
}

// normalizeFolds reloads fold ranges from their markers after an edit,
// dropping folds that became empty and merging folds that now overlap.
func (d *Display) normalizeFolds() {
	if len(d.foldRanges) == 0 {
		return
	}

	entries := make([]foldEntry, 0, len(d.foldRanges))
	for id := range d.foldRanges {
		r, err := d.markers.Range(id)
		if err != nil {
			delete(d.foldRanges, id)
			continue
		}
		entries = append(entries, foldEntry{id: id, r: r})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].r.Start.Compare(entries[j].r.Start); c != 0 {
			return c < 0
		}
		return entries[i].id < entries[j].id
	})

	d.folds.Clear()
	var kept []foldEntry
	for _, f := range entries {
		if f.r.IsEmpty() {
			d.logger.Debug("fold collapsed", "id", f.id)
			delete(d.foldRanges, f.id)
			_ = d.markers.Destroy(f.id)
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].r.Overlaps(f.r) {
			prev := &kept[n-1]
			prev.r = prev.r.Union(f.r)
			_ = d.markers.SetRange(prev.id, prev.r)
			delete(d.foldRanges, f.id)
			_ = d.markers.Destroy(f.id)
			continue
		}
		kept = append(kept, f)
	}
	for _, f := range kept {
		d.addFold(f)
	}
}

// handleMarkerDestroyed drops a fold whose marker was destroyed by someone
// else.
func (d *Display) handleMarkerDestroyed(id marker.ID) {
	r, ok := d.foldRanges[id]
	if !ok || d.destroyed {
		return
	}
	delete(d.foldRanges, id)
	d.folds.Remove(r.Start)

	// During a buffer change the display lines are still in the old
	// coordinates; rebuild everything once the change arrives.
	if d.lines[len(d.lines)-1].endRow != d.buf.LastRow() || d.pending() {
		d.rebuildAll = true
		return
	}
	d.rebuildRows(r.Start.Row, r.End.Row, ReasonFold)
}
