package display

import (
	"fmt"

	"github.com/dshills/tessera/internal/renderer/layout"
)

// ScreenPoint is a screen row and a cell column.
type ScreenPoint struct {
	Row    int
	Column int
}

// String returns the point as (row:column).
func (p ScreenPoint) String() string {
	return fmt.Sprintf("(%d:%d)", p.Row, p.Column)
}

// Compare returns -1, 0 or 1 as p is before, equal to or after other.
func (p ScreenPoint) Compare(other ScreenPoint) int {
	switch {
	case p.Row < other.Row:
		return -1
	case p.Row > other.Row:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}

// ScreenRange is a range of screen positions.
type ScreenRange struct {
	Start ScreenPoint
	End   ScreenPoint
}

// String returns the range as [start-end).
func (r ScreenRange) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// ClipOption adjusts how a screen position between two buffer positions is
// resolved.
type ClipOption func(*clipConfig)

type clipConfig struct {
	clip layout.Clip
}

// ClipForward resolves positions inside a character or placeholder to its
// end.
func ClipForward() ClipOption {
	return func(c *clipConfig) { c.clip = layout.ClipForward }
}

// ClipBackward resolves positions inside a character or placeholder to its
// start. This is the default.
func ClipBackward() ClipOption {
	return func(c *clipConfig) { c.clip = layout.ClipBackward }
}

// ClipClosest resolves positions to the nearer side.
func ClipClosest() ClipOption {
	return func(c *clipConfig) { c.clip = layout.ClipClosest }
}

func newClipConfig(opts []ClipOption) clipConfig {
	cfg := clipConfig{clip: layout.ClipBackward}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
