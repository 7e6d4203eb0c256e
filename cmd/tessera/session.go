package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/engine"
	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/measure"
)

// session bundles what a subcommand needs.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	closer io.Closer
}

// loadConfig reads the config file, if any, and the environment.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openSession loads path into a new engine configured by cfg.
func openSession(flags *globalFlags, path string, extra ...engine.Option) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	opts := append(engineOptions(cfg, logger), extra...)
	e, err := engine.NewFromReader(f, opts...)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("session opened", "path", path, "session", e.ID(), "lines", e.LineCount())
	return &session{cfg: cfg, logger: logger, engine: e, closer: closer}, nil
}

func (s *session) Close() {
	s.engine.Close()
	s.closer.Close()
}

// engineOptions maps settings onto engine options.
func engineOptions(cfg *config.Config, logger *slog.Logger) []engine.Option {
	d := cfg.Display
	opts := []engine.Option{
		engine.WithTabLength(d.TabLength),
		engine.WithSoftWrap(d.SoftWrapColumn),
		engine.WithWordWrap(d.WordWrap),
		engine.WithHangingIndent(d.HangingIndent),
		engine.WithFoldPlaceholder(d.FoldPlaceholder),
		engine.WithLineHeight(d.LineHeight),
		engine.WithCharWidth(d.CharWidth),
		engine.WithMeasureConcurrency(d.MeasureConcurrency),
		engine.WithLogger(logger),
	}
	if le, ok := lineEnding(cfg.Buffer.LineEnding); ok {
		opts = append(opts, engine.WithLineEnding(le))
	}
	if cfg.Buffer.ReadOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	return opts
}

// lineEnding maps a config name to a line ending. "auto" reports false.
func lineEnding(name string) (engine.LineEnding, bool) {
	switch name {
	case "lf":
		return engine.LineEndingLF, true
	case "crlf":
		return engine.LineEndingCRLF, true
	case "cr":
		return engine.LineEndingCR, true
	}
	return engine.LineEndingLF, false
}

// textMeasurer sizes blocks as whole screen rows. An item that is a table
// with a "lines" count takes that many rows; anything else takes one.
func textMeasurer(lineHeight float64) measure.Measurer {
	return measure.MeasurerFunc(func(_ context.Context, req measure.Request) (float64, float64, error) {
		lines := int64(1)
		if m, ok := req.Item.(map[string]any); ok {
			if n, ok := m["lines"].(int64); ok && n >= 0 {
				lines = n
			}
		}
		return req.Width, float64(lines) * lineHeight, nil
	})
}
