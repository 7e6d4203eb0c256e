package viewport

// Anchor remembers a scroll position relative to a screen row so it can be
// restored after the rows above it change height.
type Anchor struct {
	Row    int
	Offset float64 // pixels between the row top and the viewport top
}

// Anchor captures the current position relative to the first visible row.
func (v *Viewport) Anchor() Anchor {
	v.mu.RLock()
	defer v.mu.RUnlock()

	row := v.layout.ScreenRowForPixelTop(v.scrollTop)
	if count := v.layout.ScreenLineCount(); row >= count {
		row = max(count-1, 0)
	}
	return Anchor{Row: row, Offset: v.scrollTop - v.layout.PixelTopForScreenRow(row)}
}

// Restore scrolls back to a captured anchor.
func (v *Viewport) Restore(a Anchor) {
	v.ScrollTo(v.layout.PixelTopForScreenRow(a.Row) + a.Offset)
}

// EnsureRowVisible scrolls the least distance that shows all of row, or
// its top when the row is taller than the viewport. It reports whether the
// viewport moved.
func (v *Viewport) EnsureRowVisible(row int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	row = min(max(row, 0), max(v.layout.ScreenLineCount()-1, 0))
	top := v.layout.PixelTopForScreenRow(row)
	bottom := v.layout.PixelTopForScreenRow(row + 1)

	target := v.scrollTop
	switch {
	case top < v.scrollTop || bottom-top > v.height:
		target = top
	case bottom > v.scrollTop+v.height:
		target = bottom - v.height
	}
	target = v.clampLocked(target)
	if target == v.scrollTop {
		return false
	}
	v.scrollTop = target
	return true
}

// ScrollPercent returns the scroll position as 0 to 100.
func (v *Viewport) ScrollPercent() float64 {
	limit := v.MaxScrollTop()
	if limit == 0 {
		return 0
	}
	return v.ScrollTop() / limit * 100
}

// ScrollToPercent scrolls to percent of the scrollable range.
func (v *Viewport) ScrollToPercent(percent float64) {
	percent = min(max(percent, 0), 100)
	v.ScrollTo(v.MaxScrollTop() * percent / 100)
}
