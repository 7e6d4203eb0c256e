package display

import "errors"

// ErrInvalidFold indicates an empty fold range or an unknown fold.
var ErrInvalidFold = errors.New("invalid fold")

// ErrDestroyed indicates the display has been destroyed.
var ErrDestroyed = errors.New("display destroyed")
