package decoration

import (
	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/renderer/heightcache"
)

// ID identifies a decoration.
type ID uint64

// LayerID identifies a layer. DefaultLayer always exists.
type LayerID uint32

// DefaultLayer is the layer used when none is given.
const DefaultLayer LayerID = 0

// Kind is the kind of decoration.
type Kind uint8

const (
	// KindLine decorates every screen row of the marker.
	KindLine Kind = iota
	// KindGutter decorates the gutter next to the marker's rows.
	KindGutter
	// KindHighlight decorates the marker's text.
	KindHighlight
	// KindOverlay floats content at the marker's head or tail.
	KindOverlay
	// KindBlock reserves space before or after the marker's head row.
	KindBlock
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindGutter:
		return "gutter"
	case KindHighlight:
		return "highlight"
	case KindOverlay:
		return "overlay"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseKind maps a name to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "line":
		return KindLine, true
	case "gutter", "line-number":
		return KindGutter, true
	case "highlight":
		return KindHighlight, true
	case "overlay":
		return KindOverlay, true
	case "block":
		return KindBlock, true
	}
	return KindLine, false
}

// OverlayPosition anchors an overlay at one end of its marker.
type OverlayPosition uint8

const (
	OverlayHead OverlayPosition = iota
	OverlayTail
)

// DefaultGutter is the gutter used when GutterName is empty.
const DefaultGutter = "line-number"

// Properties are the kind-specific settings of a decoration.
type Properties struct {
	Class string
	Order int // sort key within a layer

	OnlyHead     bool // only the head row
	OnlyEmpty    bool // only while the marker is empty
	OnlyNonEmpty bool // only while the marker is non-empty

	// KeepEmptyLastRow keeps the last row of a line or gutter decoration
	// whose non-empty range ends at column 0. That row is skipped otherwise.
	KeepEmptyLastRow bool

	GutterName      string               // KindGutter
	OverlayPosition OverlayPosition      // KindOverlay
	BlockPosition   heightcache.Position // KindBlock

	Item any // opaque payload for the painter
}

// Decoration is a snapshot of one decoration.
type Decoration struct {
	ID         ID
	Marker     marker.ID
	Layer      LayerID
	Kind       Kind
	Properties Properties

	// Block size as last measured.
	Width    float64
	Height   float64
	Measured bool
}

// IsBlock reports whether d reserves vertical space.
func (d Decoration) IsBlock() bool {
	return d.Kind == KindBlock
}

// Layer groups decorations under a common order.
type Layer struct {
	ID    LayerID
	Name  string
	Order int
}

// UpdateKind says what changed about a decoration.
type UpdateKind uint8

const (
	UpdateAdded UpdateKind = iota
	UpdateRemoved
	UpdateChanged
	UpdateResized
	// UpdateNeedsMeasure asks for a block to be measured again.
	UpdateNeedsMeasure
)

// String returns the update kind name.
func (k UpdateKind) String() string {
	switch k {
	case UpdateAdded:
		return "added"
	case UpdateRemoved:
		return "removed"
	case UpdateChanged:
		return "changed"
	case UpdateResized:
		return "resized"
	case UpdateNeedsMeasure:
		return "needs-measure"
	default:
		return "unknown"
	}
}

// UpdateEvent signals that screen rows ScreenRow through EndRow need layout
// again. For blocks both name the anchor row and every row below it moves.
// ScreenRow is -1 when the decoration is not displayed.
type UpdateEvent struct {
	Kind      UpdateKind
	ID        ID
	Block     bool
	ScreenRow int
	EndRow    int
}
