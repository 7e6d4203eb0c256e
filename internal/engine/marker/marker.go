package marker

import (
	"maps"

	"github.com/dshills/tessera/internal/engine/buffer"
)

// ID identifies a marker for its whole lifetime. IDs are never reused within
// an Index.
type ID uint64

// EndPolicy decides how one end of a marker reacts to edits at its boundary.
type EndPolicy uint8

const (
	Stay EndPolicy = iota
	Grow
	Shrink
	Surround
)

// String returns the policy name.
func (p EndPolicy) String() string {
	switch p {
	case Stay:
		return "stay"
	case Grow:
		return "grow"
	case Shrink:
		return "shrink"
	case Surround:
		return "surround"
	default:
		return "unknown"
	}
}

// ParseEndPolicy maps a name to an EndPolicy.
func ParseEndPolicy(name string) (EndPolicy, bool) {
	switch name {
	case "stay", "":
		return Stay, true
	case "grow":
		return Grow, true
	case "shrink":
		return Shrink, true
	case "surround":
		return Surround, true
	}
	return Stay, false
}

// InvalidationStrategy decides which changes make a marker invalid.
type InvalidationStrategy uint8

const (
	// InvalidateNever keeps the marker valid regardless of edits.
	InvalidateNever InvalidationStrategy = iota
	// InvalidateSurround invalidates when a change strictly encloses the marker.
	InvalidateSurround
	// InvalidateOverlap invalidates when a change encloses either end.
	InvalidateOverlap
	// InvalidateInside invalidates when a change reaches into the marker.
	InvalidateInside
	// InvalidateTouch invalidates when a change touches the marker at all.
	InvalidateTouch
)

// String returns the strategy name.
func (s InvalidationStrategy) String() string {
	switch s {
	case InvalidateNever:
		return "never"
	case InvalidateSurround:
		return "surround"
	case InvalidateOverlap:
		return "overlap"
	case InvalidateInside:
		return "inside"
	case InvalidateTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// ParseInvalidationStrategy maps a name to an InvalidationStrategy.
func ParseInvalidationStrategy(name string) (InvalidationStrategy, bool) {
	switch name {
	case "never", "":
		return InvalidateNever, true
	case "surround":
		return InvalidateSurround, true
	case "overlap":
		return InvalidateOverlap, true
	case "inside":
		return InvalidateInside, true
	case "touch":
		return InvalidateTouch, true
	}
	return InvalidateNever, false
}

// Marker is a snapshot of a tracked range.
type Marker struct {
	ID          ID
	Range       buffer.Range
	Reversed    bool // head precedes tail
	StartPolicy EndPolicy
	EndPolicy   EndPolicy
	Invalidate  InvalidationStrategy
	Valid       bool
	Properties  map[string]any
}

// Head returns the end of the marker that moves when it is extended.
func (m Marker) Head() buffer.Point {
	if m.Reversed {
		return m.Range.Start
	}
	return m.Range.End
}

// Tail returns the fixed end of the marker.
func (m Marker) Tail() buffer.Point {
	if m.Reversed {
		return m.Range.End
	}
	return m.Range.Start
}

// IsEmpty returns true if the marker covers no text.
func (m Marker) IsEmpty() bool {
	return m.Range.IsEmpty()
}

func (m Marker) clone() Marker {
	if m.Properties != nil {
		m.Properties = maps.Clone(m.Properties)
	}
	return m
}

// MarkerEvent describes a change to one marker.
type MarkerEvent struct {
	ID          ID
	Old         buffer.Range
	New         buffer.Range
	TextChanged bool // caused by a buffer edit touching the marker
	WasValid    bool
	IsValid     bool
}
