package dirty

import (
	"maps"
	"slices"
	"sync"

	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/display"
)

// ChangeType represents the cause of a dirty region.
type ChangeType uint8

const (
	// ChangeEdit indicates buffer text changed.
	ChangeEdit ChangeType = iota

	// ChangeFold indicates a fold was created or removed.
	ChangeFold

	// ChangeSettings indicates a layout setting changed.
	ChangeSettings

	// ChangeDecoration indicates a decoration was added, changed or removed.
	ChangeDecoration

	// ChangeBlock indicates a block decoration changed height.
	ChangeBlock
)

// String returns the string representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeEdit:
		return "edit"
	case ChangeFold:
		return "fold"
	case ChangeSettings:
		return "settings"
	case ChangeDecoration:
		return "decoration"
	case ChangeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Change represents a single change event.
type Change struct {
	Type   ChangeType
	Region Region
}

// Tracker collects dirty regions and coalesces them. It is safe for
// concurrent use so a painter may take regions from its own goroutine.
type Tracker struct {
	mu sync.RWMutex

	// regions are kept sorted by StartRow and pairwise disjoint.
	regions []Region

	// fullRedraw indicates every row needs redrawing.
	fullRedraw bool

	// maxRegions is the number of regions that forces a full redraw.
	maxRegions int

	// rowCount is the current number of screen rows, 0 when unknown.
	rowCount int

	// causes counts marks per change type since the last Clear.
	causes map[ChangeType]int
}

// NewTracker creates a tracker for a screen of rowCount rows. A rowCount
// of 0 leaves regions unclipped.
func NewTracker(rowCount int) *Tracker {
	return &Tracker{
		regions:    make([]Region, 0, 16),
		maxRegions: 32,
		rowCount:   max(rowCount, 0),
		causes:     make(map[ChangeType]int),
	}
}

// SetRowCount updates the number of screen rows.
func (t *Tracker) SetRowCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowCount = max(n, 0)
}

// MarkFullRedraw marks every row as dirty.
func (t *Tracker) MarkFullRedraw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fullRedraw = true
	t.regions = t.regions[:0]
}

// MarkRow marks a single row as dirty.
func (t *Tracker) MarkRow(row int) {
	t.MarkRegion(NewSingleRow(row))
}

// MarkRows marks rows start through end as dirty.
func (t *Tracker) MarkRows(start, end int) {
	t.MarkRegion(NewRowRegion(start, end))
}

// MarkRegion marks a region as dirty.
func (t *Tracker) MarkRegion(region Region) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addRegion(region)
}

// MarkChange marks the region of a change.
func (t *Tracker) MarkChange(change Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.causes[change.Type]++
	if change.Type == ChangeSettings {
		t.fullRedraw = true
		t.regions = t.regions[:0]
		return
	}
	t.addRegion(change.Region)
}

// MarkScreenChange marks the rows touched by a display change. When the
// change altered the row count every row below it is dirty.
func (t *Tracker) MarkScreenChange(c display.ScreenChange) {
	change := Change{Type: ChangeEdit}
	switch c.Reason {
	case display.ReasonFold:
		change.Type = ChangeFold
	case display.ReasonSettings:
		change.Type = ChangeSettings
	}

	if c.ToEnd || c.Delta() != 0 {
		change.Region = NewToEndRegion(c.StartRow)
	} else {
		change.Region = NewRowRegion(c.StartRow, c.NewEnd-1)
	}
	t.MarkChange(change)
}

// MarkDecorationUpdate marks the rows of a decoration update. A block that
// appears, disappears or changes height moves every row below it. Requests
// for measurement change nothing on screen.
func (t *Tracker) MarkDecorationUpdate(ev decoration.UpdateEvent) {
	if ev.ScreenRow < 0 || ev.Kind == decoration.UpdateNeedsMeasure {
		return
	}
	if ev.Block {
		t.MarkChange(Change{Type: ChangeBlock, Region: NewToEndRegion(ev.ScreenRow)})
		return
	}
	t.MarkChange(Change{Type: ChangeDecoration, Region: NewRowRegion(ev.ScreenRow, max(ev.EndRow, ev.ScreenRow))})
}

// addRegion inserts region and merges it with the regions it touches.
func (t *Tracker) addRegion(region Region) {
	if t.fullRedraw || region.IsEmpty() {
		return
	}
	if t.rowCount > 0 && region.StartRow >= t.rowCount {
		return
	}

	i, _ := slices.BinarySearchFunc(t.regions, region.StartRow, func(r Region, row int) int {
		return r.StartRow - row
	})
	t.regions = slices.Insert(t.regions, i, region)
	t.coalesceRegions()

	if len(t.regions) > t.maxRegions {
		t.fullRedraw = true
		t.regions = t.regions[:0]
	}
}

// coalesceRegions merges overlapping or adjacent neighbours of the sorted
// region list.
func (t *Tracker) coalesceRegions() {
	if len(t.regions) <= 1 {
		return
	}
	out := t.regions[:1]
	for _, r := range t.regions[1:] {
		last := &out[len(out)-1]
		if merged, ok := last.Merge(r); ok {
			*last = merged
			continue
		}
		out = append(out, r)
	}
	t.regions = out
}

// IsDirty returns true if any row is dirty.
func (t *Tracker) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.fullRedraw || len(t.regions) > 0
}

// NeedsFullRedraw returns true if a full redraw is needed.
func (t *Tracker) NeedsFullRedraw() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.fullRedraw
}

// DirtyRegions returns a copy of the current dirty regions, clipped to the
// row count when it is known. A full redraw is reported as a single region
// from row 0 to the end.
func (t *Tracker) DirtyRegions() []Region {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

// Take returns the dirty regions and clears the tracker.
func (t *Tracker) Take() []Region {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.snapshot()
	t.reset()
	return out
}

func (t *Tracker) snapshot() []Region {
	if t.fullRedraw {
		return []Region{t.clip(NewToEndRegion(0))}
	}
	result := make([]Region, 0, len(t.regions))
	for _, r := range t.regions {
		if r = t.clip(r); !r.IsEmpty() {
			result = append(result, r)
		}
	}
	return result
}

func (t *Tracker) clip(r Region) Region {
	if t.rowCount == 0 {
		return r
	}
	return r.Clip(t.rowCount)
}

// IsRowDirty returns true if row needs redrawing.
func (t *Tracker) IsRowDirty(row int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fullRedraw {
		return true
	}
	for _, r := range t.regions {
		if r.ContainsRow(row) {
			return true
		}
	}
	return false
}

// IsRegionDirty returns true if any part of region needs redrawing.
func (t *Tracker) IsRegionDirty(region Region) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fullRedraw {
		return true
	}
	for _, r := range t.regions {
		if r.Overlaps(region) {
			return true
		}
	}
	return false
}

// Clear clears all dirty regions.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *Tracker) reset() {
	t.regions = t.regions[:0]
	t.fullRedraw = false
	clear(t.causes)
}

// RegionCount returns the number of dirty regions.
func (t *Tracker) RegionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fullRedraw {
		return 1
	}
	return len(t.regions)
}

// SetMaxRegions sets the number of regions that forces a full redraw.
// Values less than 1 are clamped to 1.
func (t *Tracker) SetMaxRegions(maxRegs int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxRegions = max(maxRegs, 1)
}

// Stats returns statistics about the tracker state.
func (t *Tracker) Stats() TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return TrackerStats{
		RegionCount: len(t.regions),
		FullRedraw:  t.fullRedraw,
		RowCount:    t.rowCount,
		MaxRegions:  t.maxRegions,
		Causes:      maps.Clone(t.causes),
	}
}

// TrackerStats contains statistics about the tracker state.
type TrackerStats struct {
	RegionCount int
	FullRedraw  bool
	RowCount    int
	MaxRegions  int
	Causes      map[ChangeType]int
}
