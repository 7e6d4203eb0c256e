// Package decoration attaches visual decorations to markers.
//
// A decoration follows its marker: its screen rows are always derived from
// the marker's current range through the display, never stored. Queries by
// screen row are served from an interval index that is rebuilt lazily after
// edits, folds or wrap changes.
//
// Block decorations reserve vertical space. Their heights live in a
// heightcache.Cache; a block starts unmeasured with zero height and grows
// once SetDimensionsForDecoration reports its measured size.
//
// Decorations are grouped in layers. Results are ordered by layer order,
// then by the Order property, then by ID.
package decoration
