// Package viewport tracks the visible part of a laid-out document in pixel
// space. Block decorations give rows uneven heights, so the viewport scrolls
// by pixels and asks the layout which screen rows fall inside it.
package viewport

import "sync"

// Layout is the view of the document a viewport needs. *display.Display
// and *engine.Engine both satisfy it.
type Layout interface {
	ScreenLineCount() int
	PixelTopForScreenRow(row int) float64
	ScreenRowForPixelTop(top float64) int
}

// Viewport represents the visible portion of the screen rows.
type Viewport struct {
	mu sync.RWMutex

	layout Layout

	// Scroll position and size in pixels
	scrollTop float64
	height    float64

	// overscan is the number of rows reported beyond each edge.
	overscan int
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithOverscan reports rows extra rows above and below the visible ones.
func WithOverscan(rows int) Option {
	return func(v *Viewport) {
		if rows >= 0 {
			v.overscan = rows
		}
	}
}

// New creates a viewport of height pixels over layout.
func New(layout Layout, height float64, opts ...Option) *Viewport {
	v := &Viewport{layout: layout, height: max(height, 0)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Height returns the viewport height in pixels.
func (v *Viewport) Height() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// ScrollTop returns the pixel offset of the top edge.
func (v *Viewport) ScrollTop() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scrollTop
}

// Resize updates the viewport height and keeps the scroll position valid.
func (v *Viewport) Resize(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.height = max(height, 0)
	v.scrollTop = v.clampLocked(v.scrollTop)
}

// ContentHeight returns the pixel height of every screen row and block.
func (v *Viewport) ContentHeight() float64 {
	return v.layout.PixelTopForScreenRow(v.layout.ScreenLineCount())
}

// MaxScrollTop returns the largest valid scroll position.
func (v *Viewport) MaxScrollTop() float64 {
	return max(v.ContentHeight()-v.Height(), 0)
}

func (v *Viewport) clampLocked(top float64) float64 {
	limit := max(v.layout.PixelTopForScreenRow(v.layout.ScreenLineCount())-v.height, 0)
	return min(max(top, 0), limit)
}

// VisibleRows returns the screen rows [start, end) that intersect the
// viewport, widened by the overscan.
func (v *Viewport) VisibleRows() (start, end int) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	count := v.layout.ScreenLineCount()
	if count == 0 {
		return 0, 0
	}
	start = min(v.layout.ScreenRowForPixelTop(v.scrollTop), count-1)
	end = start + 1
	bottom := v.scrollTop + v.height
	for end < count && v.layout.PixelTopForScreenRow(end) < bottom {
		end++
	}

	start = max(start-v.overscan, 0)
	end = min(end+v.overscan, count)
	return start, end
}

// IsRowVisible reports whether any part of row is inside the viewport.
func (v *Viewport) IsRowVisible(row int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if row < 0 || row >= v.layout.ScreenLineCount() {
		return false
	}
	top := v.layout.PixelTopForScreenRow(row)
	bottom := v.layout.PixelTopForScreenRow(row + 1)
	return bottom > v.scrollTop && top < v.scrollTop+v.height
}

// ScrollTo moves the top edge to top pixels, clamped to the content.
func (v *Viewport) ScrollTo(top float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = v.clampLocked(top)
}

// ScrollBy moves the top edge by delta pixels.
func (v *Viewport) ScrollBy(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = v.clampLocked(v.scrollTop + delta)
}

// ScrollToRow puts the top of row at the top edge.
func (v *Viewport) ScrollToRow(row int) {
	v.ScrollTo(v.layout.PixelTopForScreenRow(max(row, 0)))
}

// PageDown scrolls down by one viewport height.
func (v *Viewport) PageDown() {
	v.ScrollBy(v.Height())
}

// PageUp scrolls up by one viewport height.
func (v *Viewport) PageUp() {
	v.ScrollBy(-v.Height())
}
