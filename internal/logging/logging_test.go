package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tessera/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.With("component", "display").Warn("shown", "row", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "component=display")
	assert.Contains(t, out, "row=3")
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("measured", "height", 20.5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "measured", rec["msg"])
	assert.Equal(t, 20.5, rec["height"])
}

func TestNewWithWriterRejectsFormat(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tessera.log")
	cfg := config.Default().Logging
	cfg.File = path

	logger, closer, err := New(cfg)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to file"))
}

func TestNewStderr(t *testing.T) {
	logger, closer, err := New(config.Default().Logging)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestCounter(t *testing.T) {
	c := NewCounter(slog.NewTextHandler(io.Discard, nil))
	logger := slog.New(c).With("component", "test")

	logger.Info("a")
	logger.Warn("b")
	logger.WithGroup("g").Error("c")
	logger.Error("d")

	warn, errs := c.Counts()
	assert.Equal(t, int64(1), warn)
	assert.Equal(t, int64(2), errs)
}

func TestDiscard(t *testing.T) {
	assert.NotNil(t, Discard())
	Discard().Error("dropped")
}
