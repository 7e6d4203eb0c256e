package engine

import (
	"log/slog"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/renderer/display"
)

// Default configuration values.
const (
	DefaultTabLength   = 4
	DefaultLineHeight  = 1.0
	DefaultCharWidth   = 1.0
	DefaultConcurrency = 4
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithLineEnding sets the line ending used for inserted text. Without it
// the ending is detected from the initial content.
func WithLineEnding(ending buffer.LineEnding) Option {
	return func(e *Engine) {
		e.lineEnding = &ending
	}
}

// WithTabLength sets the display width of a tab.
func WithTabLength(width int) Option {
	return func(e *Engine) {
		if width > 0 {
			e.tabLength = width
		}
	}
}

// WithSoftWrap wraps screen rows at column cells. Zero disables wrapping.
func WithSoftWrap(column int) Option {
	return func(e *Engine) {
		if column >= 0 {
			e.softWrap = column
		}
	}
}

// WithWordWrap wraps at word boundaries instead of at any cell.
func WithWordWrap(enabled bool) Option {
	return func(e *Engine) {
		e.wordWrap = enabled
	}
}

// WithHangingIndent adds cells of indent to continuation rows.
func WithHangingIndent(cells int) Option {
	return func(e *Engine) {
		if cells >= 0 {
			e.hangingIndent = cells
		}
	}
}

// WithFoldPlaceholder sets the text shown in place of a fold.
func WithFoldPlaceholder(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.foldPlaceholder = text
		}
	}
}

// WithLineHeight sets the height of a screen row in pixels.
func WithLineHeight(px float64) Option {
	return func(e *Engine) {
		if px > 0 {
			e.lineHeight = px
		}
	}
}

// WithCharWidth sets the width of a cell in pixels.
func WithCharWidth(px float64) Option {
	return func(e *Engine) {
		if px > 0 {
			e.charWidth = px
		}
	}
}

// WithNonBreakingSpans keeps the spans returned by fn on a single screen
// row.
func WithNonBreakingSpans(fn display.NonBreakingFunc) Option {
	return func(e *Engine) {
		e.nonBreaking = fn
	}
}

// WithMeasureConcurrency bounds concurrent block measurements.
func WithMeasureConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMaxUndo bounds the number of undo entries kept.
func WithMaxUndo(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxUndo = n
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithLogger sets the logger shared by every component of the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
