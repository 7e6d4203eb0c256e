package buffer

import "log/slog"

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithLineEnding sets the ending given to line breaks inserted by edits.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) {
		if le != LineEndingNone {
			b.lineEnding = le
		}
	}
}

// WithLF configures the buffer to use Unix line endings (\n).
func WithLF() Option {
	return WithLineEnding(LineEndingLF)
}

// WithCRLF configures the buffer to use Windows line endings (\r\n).
func WithCRLF() Option {
	return WithLineEnding(LineEndingCRLF)
}

// WithCR configures the buffer to use old Mac line endings (\r).
func WithCR() Option {
	return WithLineEnding(LineEndingCR)
}

// WithDetectedLineEnding sets the buffer's line ending style based on content.
func WithDetectedLineEnding(text string) Option {
	return WithLineEnding(DetectLineEnding(text))
}

// WithNormalizeLineEndings controls whether line breaks in inserted text are
// rewritten to the buffer's line ending. Enabled by default.
func WithNormalizeLineEndings(enabled bool) Option {
	return func(b *Buffer) {
		b.normalize = enabled
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Buffer) {
		if logger != nil {
			b.logger = logger
		}
	}
}
