package display

import (
	"log/slog"

	"github.com/dshills/tessera/internal/renderer/layout"
)

// DefaultFoldPlaceholder is shown in place of folded text.
const DefaultFoldPlaceholder = "⋯"

// NonBreakingFunc returns the byte spans of a buffer line that must never be
// split by soft wrap. Spans may be unsorted and may overlap.
type NonBreakingFunc func(row int, text string) []layout.Span

// Option configures a Display.
type Option func(*Display)

// WithSoftWrap wraps lines at the given column. Zero disables wrapping.
func WithSoftWrap(column int) Option {
	return func(d *Display) {
		d.engine.SetWrap(column, d.engine.WrapAtWord())
	}
}

// WithWordWrap selects whether soft wrap breaks at word boundaries.
func WithWordWrap(enabled bool) Option {
	return func(d *Display) {
		d.engine.SetWrap(d.engine.WrapWidth(), enabled)
	}
}

// WithTabLength sets the tab width in cells.
func WithTabLength(width int) Option {
	return func(d *Display) {
		d.engine.SetTabWidth(width)
	}
}

// WithHangingIndent adds cells to the indent of wrapped continuation rows.
func WithHangingIndent(cells int) Option {
	return func(d *Display) {
		d.engine.SetHangingIndent(cells)
	}
}

// WithFoldPlaceholder sets the text shown for a fold.
func WithFoldPlaceholder(text string) Option {
	return func(d *Display) {
		if text != "" {
			d.placeholder = text
		}
	}
}

// WithNonBreakingSpans installs a provider of spans soft wrap must keep
// whole.
func WithNonBreakingSpans(fn NonBreakingFunc) Option {
	return func(d *Display) {
		d.nonBreaking = fn
	}
}

// WithLineHeight sets the pixel height of one screen row.
func WithLineHeight(px float64) Option {
	return func(d *Display) {
		if px > 0 {
			d.lineHeight = px
		}
	}
}

// WithCharWidth sets the pixel width of one cell.
func WithCharWidth(px float64) Option {
	return func(d *Display) {
		if px > 0 {
			d.charWidth = px
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Display) {
		if logger != nil {
			d.logger = logger
		}
	}
}
