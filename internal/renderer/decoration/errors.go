package decoration

import "errors"

var (
	// ErrDecorationExists indicates the marker already has a decoration in
	// the layer.
	ErrDecorationExists = errors.New("decoration already exists")

	// ErrInvalidDecoration indicates an unknown decoration, kind or layer,
	// or contradictory properties.
	ErrInvalidDecoration = errors.New("invalid decoration")

	// ErrDestroyed indicates the manager has been destroyed.
	ErrDestroyed = errors.New("decoration manager destroyed")
)
