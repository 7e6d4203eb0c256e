package marker

import (
	"testing"

	"github.com/dshills/tessera/internal/engine/buffer"
)

func pt(row, col int) Point { return Point{Row: row, Column: col} }

func rng(sr, sc, er, ec int) Range { return Range{Start: pt(sr, sc), End: pt(er, ec)} }

func change(old Range, newEnd Point) buffer.Change {
	return buffer.Change{OldRange: old, NewRange: Range{Start: old.Start, End: newEnd}}
}

func TestTransformPoint(t *testing.T) {
	insert := change(rng(0, 5, 0, 5), pt(0, 8))     // 3 chars at (0:5)
	replace := change(rng(0, 5, 0, 10), pt(1, 2))  // (0:5)-(0:10) -> (0:5)-(1:2)
	multiline := change(rng(1, 0, 3, 4), pt(1, 1)) // rows 1-3 collapse

	tests := []struct {
		name   string
		p      Point
		c      buffer.Change
		role   Role
		policy EndPolicy
		want   Point
	}{
		{"before", pt(0, 2), insert, RoleEnd, Stay, pt(0, 2)},
		{"after same row", pt(0, 7), insert, RoleEnd, Stay, pt(0, 10)},
		{"after later row", pt(2, 1), insert, RoleEnd, Stay, pt(2, 1)},
		{"after replace same row", pt(0, 12), replace, RoleEnd, Stay, pt(1, 4)},
		{"after multiline", pt(3, 9), multiline, RoleEnd, Stay, pt(1, 6)},
		{"after multiline later row", pt(5, 2), multiline, RoleEnd, Stay, pt(3, 2)},

		{"insert end stay", pt(0, 5), insert, RoleEnd, Stay, pt(0, 5)},
		{"insert end grow", pt(0, 5), insert, RoleEnd, Grow, pt(0, 8)},
		{"insert end surround", pt(0, 5), insert, RoleEnd, Surround, pt(0, 8)},
		{"insert end shrink", pt(0, 5), insert, RoleEnd, Shrink, pt(0, 5)},
		{"insert start stay", pt(0, 5), insert, RoleStart, Stay, pt(0, 8)},
		{"insert start grow", pt(0, 5), insert, RoleStart, Grow, pt(0, 5)},

		{"inside start", pt(0, 7), replace, RoleStart, Stay, pt(0, 5)},
		{"inside start shrink", pt(0, 7), replace, RoleStart, Shrink, pt(1, 2)},
		{"inside end", pt(0, 7), replace, RoleEnd, Stay, pt(0, 5)},
		{"inside end shrink", pt(0, 7), replace, RoleEnd, Shrink, pt(0, 5)},
		{"inside start grow", pt(0, 7), replace, RoleStart, Grow, pt(1, 2)},
		{"inside end grow", pt(0, 7), replace, RoleEnd, Grow, pt(1, 2)},
		{"inside start surround", pt(0, 7), replace, RoleStart, Surround, pt(0, 5)},
		{"inside end surround", pt(0, 7), replace, RoleEnd, Surround, pt(1, 2)},

		{"end at replace start", pt(0, 5), replace, RoleEnd, Stay, pt(0, 5)},
		{"end at replace start surround", pt(0, 5), replace, RoleEnd, Surround, pt(1, 2)},
		{"start at replace end", pt(0, 10), replace, RoleStart, Stay, pt(1, 2)},
		{"start at replace end surround", pt(0, 10), replace, RoleStart, Surround, pt(0, 5)},
		{"end at replace end", pt(0, 10), replace, RoleEnd, Stay, pt(1, 2)},
		{"start at replace start", pt(0, 5), replace, RoleStart, Stay, pt(0, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransformPoint(tt.p, tt.c, tt.role, tt.policy)
			if got != tt.want {
				t.Errorf("TransformPoint(%s) = %s, want %s", tt.p, got, tt.want)
			}
		})
	}
}

func TestTransformRangeBoundaryInsertions(t *testing.T) {
	r := rng(0, 2, 0, 6)
	atStart := change(rng(0, 2, 0, 2), pt(0, 4))
	atEnd := change(rng(0, 6, 0, 6), pt(0, 8))

	tests := []struct {
		name   string
		c      buffer.Change
		policy EndPolicy
		want   Range
	}{
		{"stay start", atStart, Stay, rng(0, 4, 0, 8)},
		{"grow start", atStart, Grow, rng(0, 2, 0, 8)},
		{"stay end", atEnd, Stay, rng(0, 2, 0, 6)},
		{"grow end", atEnd, Grow, rng(0, 2, 0, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformRange(r, tt.c, tt.policy, tt.policy); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTransformRangeCollapse(t *testing.T) {
	// Deleting the whole marker collapses it to the deletion point.
	got := TransformRange(rng(0, 3, 0, 5), change(rng(0, 1, 0, 8), pt(0, 1)), Stay, Stay)
	if got != rng(0, 1, 0, 1) {
		t.Errorf("got %s, want (0:1)-(0:1)", got)
	}

	// Shrink on both ends with a straddling change never inverts the range.
	got = TransformRange(rng(0, 3, 0, 5), change(rng(0, 1, 0, 8), pt(0, 4)), Shrink, Shrink)
	if got.End.Before(got.Start) {
		t.Errorf("inverted range %s", got)
	}
}

func TestTransformRangeInteriorReplacement(t *testing.T) {
	tests := []struct {
		name       string
		r          Range
		c          buffer.Change
		start, end EndPolicy
		want       Range
	}{
		// "abcdefghij": (0:3)-(0:7) replaced by "X"
		{"stay end clamps to new start", rng(0, 0, 0, 5), change(rng(0, 3, 0, 7), pt(0, 4)), Stay, Stay, rng(0, 0, 0, 3)},
		{"grow end clamps to new end", rng(0, 0, 0, 5), change(rng(0, 3, 0, 7), pt(0, 4)), Stay, Grow, rng(0, 0, 0, 4)},
		// (0:1)-(0:4) replaced by "XYZ"
		{"grow start clamps to new end", rng(0, 2, 0, 9), change(rng(0, 1, 0, 4), pt(0, 4)), Grow, Grow, rng(0, 4, 0, 9)},
		{"stay start clamps to new start", rng(0, 2, 0, 9), change(rng(0, 1, 0, 4), pt(0, 4)), Stay, Stay, rng(0, 1, 0, 9)},
		{"mixed policies", rng(0, 2, 0, 5), change(rng(0, 1, 0, 6), pt(0, 3)), Grow, Stay, rng(0, 1, 0, 1)},
		{"stay point", rng(0, 5, 0, 5), change(rng(0, 3, 0, 7), pt(0, 5)), Stay, Stay, rng(0, 3, 0, 3)},
		{"grow point", rng(0, 5, 0, 5), change(rng(0, 3, 0, 7), pt(0, 5)), Grow, Grow, rng(0, 5, 0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformRange(tt.r, tt.c, tt.start, tt.end); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInvalidates(t *testing.T) {
	m := rng(0, 4, 0, 8)

	tests := []struct {
		name   string
		c      Range
		expect map[InvalidationStrategy]bool
	}{
		{"surrounding", rng(0, 2, 0, 10), map[InvalidationStrategy]bool{
			InvalidateNever: false, InvalidateSurround: true, InvalidateOverlap: true, InvalidateInside: true, InvalidateTouch: true,
		}},
		{"over start", rng(0, 2, 0, 5), map[InvalidationStrategy]bool{
			InvalidateSurround: false, InvalidateOverlap: true, InvalidateInside: true, InvalidateTouch: true,
		}},
		{"interior", rng(0, 5, 0, 6), map[InvalidationStrategy]bool{
			InvalidateSurround: false, InvalidateOverlap: false, InvalidateInside: true, InvalidateTouch: true,
		}},
		{"adjacent after", rng(0, 8, 0, 9), map[InvalidationStrategy]bool{
			InvalidateSurround: false, InvalidateOverlap: false, InvalidateInside: false, InvalidateTouch: true,
		}},
		{"disjoint", rng(1, 0, 1, 2), map[InvalidationStrategy]bool{
			InvalidateOverlap: false, InvalidateInside: false, InvalidateTouch: false,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := change(tt.c, tt.c.Start)
			for s, want := range tt.expect {
				if got := Invalidates(s, m, c); got != want {
					t.Errorf("%s: got %v, want %v", s, got, want)
				}
			}
		})
	}
}

func TestEndPolicyNames(t *testing.T) {
	for _, p := range []EndPolicy{Stay, Grow, Shrink, Surround} {
		got, ok := ParseEndPolicy(p.String())
		if !ok || got != p {
			t.Errorf("ParseEndPolicy(%q) = %v, %v", p.String(), got, ok)
		}
	}
	for _, s := range []InvalidationStrategy{InvalidateNever, InvalidateSurround, InvalidateOverlap, InvalidateInside, InvalidateTouch} {
		got, ok := ParseInvalidationStrategy(s.String())
		if !ok || got != s {
			t.Errorf("ParseInvalidationStrategy(%q) = %v, %v", s.String(), got, ok)
		}
	}
}
