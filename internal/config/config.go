package config

import (
	"errors"
	"slices"
	"time"
)

// Config holds every setting of a session.
type Config struct {
	Buffer  BufferConfig  `toml:"buffer" yaml:"buffer"`
	Display DisplayConfig `toml:"display" yaml:"display"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Plugin  PluginConfig  `toml:"plugin" yaml:"plugin"`
}

// BufferConfig configures the text buffer.
type BufferConfig struct {
	// LineEnding is "auto", "lf", "crlf" or "cr". Auto detects the
	// ending from the loaded text.
	LineEnding string `toml:"line_ending" yaml:"line_ending"`
	ReadOnly   bool   `toml:"read_only" yaml:"read_only"`
}

// DisplayConfig configures folding, wrapping and geometry.
type DisplayConfig struct {
	TabLength       int    `toml:"tab_length" yaml:"tab_length"`
	SoftWrapColumn  int    `toml:"soft_wrap_column" yaml:"soft_wrap_column"` // 0 disables wrapping
	WordWrap        bool   `toml:"word_wrap" yaml:"word_wrap"`
	HangingIndent   int    `toml:"hanging_indent" yaml:"hanging_indent"`
	FoldPlaceholder string `toml:"fold_placeholder" yaml:"fold_placeholder"`

	LineHeight float64 `toml:"line_height" yaml:"line_height"`
	CharWidth  float64 `toml:"char_width" yaml:"char_width"`

	// MeasureConcurrency bounds the block measurements run at once.
	MeasureConcurrency int `toml:"measure_concurrency" yaml:"measure_concurrency"`
}

// LoggingConfig configures the session logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text or json

	// File sends logs to a rotating file instead of stderr.
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// PluginConfig configures the Lua host.
type PluginConfig struct {
	// Scripts run in order when a session starts.
	Scripts []string `toml:"scripts" yaml:"scripts"`

	// TimeoutMS bounds each script run in milliseconds. 0 disables the bound.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
}

// Timeout returns the script timeout as a duration.
func (p PluginConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{
			LineEnding: "auto",
		},
		Display: DisplayConfig{
			TabLength:          4,
			FoldPlaceholder:    "⋯",
			LineHeight:         1,
			CharWidth:          1,
			MeasureConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Plugin: PluginConfig{
			TimeoutMS: 5000,
		},
	}
}

var (
	lineEndings = []string{"auto", "lf", "crlf", "cr"}
	logLevels   = []string{"debug", "info", "warn", "error"}
	logFormats  = []string{"text", "json"}
)

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path string, value any, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
		}
	}

	check(slices.Contains(lineEndings, c.Buffer.LineEnding), "buffer.line_ending", c.Buffer.LineEnding, "must be auto, lf, crlf or cr")

	d := c.Display
	check(d.TabLength >= 1, "display.tab_length", d.TabLength, "must be at least 1")
	check(d.SoftWrapColumn >= 0, "display.soft_wrap_column", d.SoftWrapColumn, "must not be negative")
	check(d.HangingIndent >= 0, "display.hanging_indent", d.HangingIndent, "must not be negative")
	check(d.LineHeight > 0, "display.line_height", d.LineHeight, "must be positive")
	check(d.CharWidth > 0, "display.char_width", d.CharWidth, "must be positive")
	check(d.MeasureConcurrency >= 1, "display.measure_concurrency", d.MeasureConcurrency, "must be at least 1")

	l := c.Logging
	check(slices.Contains(logLevels, l.Level), "logging.level", l.Level, "must be debug, info, warn or error")
	check(slices.Contains(logFormats, l.Format), "logging.format", l.Format, "must be text or json")
	check(l.MaxSizeMB >= 0, "logging.max_size_mb", l.MaxSizeMB, "must not be negative")
	check(l.MaxBackups >= 0, "logging.max_backups", l.MaxBackups, "must not be negative")
	check(l.MaxAgeDays >= 0, "logging.max_age_days", l.MaxAgeDays, "must not be negative")

	check(c.Plugin.TimeoutMS >= 0, "plugin.timeout_ms", c.Plugin.TimeoutMS, "must not be negative")

	return errors.Join(errs...)
}
