package display

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/renderer/layout"
)

func pt(row, col int) buffer.Point { return buffer.Point{Row: row, Column: col} }

func rng(sr, sc, er, ec int) buffer.Range { return buffer.Range{Start: pt(sr, sc), End: pt(er, ec)} }

func newDisplay(t *testing.T, text string, opts ...Option) (*buffer.Buffer, *Display) {
	t.Helper()
	buf := buffer.New(text)
	idx := marker.NewIndex(buf)
	d := New(buf, idx, opts...)
	t.Cleanup(d.Destroy)
	return buf, d
}

func screenRows(d *Display) []string {
	var rows []string
	for _, l := range d.ScreenLines(0, d.ScreenLineCount()) {
		rows = append(rows, l.Text)
	}
	return rows
}

func TestUnwrappedTranslation(t *testing.T) {
	_, d := newDisplay(t, "abc\n\tdef")

	tests := []struct {
		p    buffer.Point
		want ScreenPoint
	}{
		{pt(0, 0), ScreenPoint{0, 0}},
		{pt(0, 3), ScreenPoint{0, 3}},
		{pt(1, 0), ScreenPoint{1, 0}},
		{pt(1, 1), ScreenPoint{1, 4}},
		{pt(1, 4), ScreenPoint{1, 7}},
	}
	for _, tt := range tests {
		got, err := d.ScreenPositionForBufferPosition(tt.p)
		if err != nil {
			t.Fatalf("%s: %v", tt.p, err)
		}
		if got != tt.want {
			t.Errorf("%s -> %s, want %s", tt.p, got, tt.want)
		}
		if back := d.BufferPositionForScreenPosition(got); back != tt.p {
			t.Errorf("%s -> %s -> %s", tt.p, got, back)
		}
	}

	// Inside the tab.
	if got := d.BufferPositionForScreenPosition(ScreenPoint{1, 2}); got != pt(1, 0) {
		t.Errorf("inside tab backward -> %s", got)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{1, 2}, ClipForward()); got != pt(1, 1) {
		t.Errorf("inside tab forward -> %s", got)
	}
	// Past the end of a row and of the screen.
	if got := d.BufferPositionForScreenPosition(ScreenPoint{0, 40}); got != pt(0, 3) {
		t.Errorf("past row end -> %s", got)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{9, 0}); got != pt(1, 4) {
		t.Errorf("past last row -> %s", got)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{-1, 5}); got != pt(0, 0) {
		t.Errorf("negative row -> %s", got)
	}
}

func TestScreenPositionOutOfBounds(t *testing.T) {
	_, d := newDisplay(t, "abc")
	_, err := d.ScreenPositionForBufferPosition(pt(3, 0))
	if !errors.Is(err, buffer.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSoftWrapTranslation(t *testing.T) {
	_, d := newDisplay(t, "abcdefgh", WithSoftWrap(3), WithWordWrap(false))

	if n := d.ScreenLineCount(); n != 3 {
		t.Fatalf("expected 3 screen rows, got %d", n)
	}
	sp, err := d.ScreenPositionForBufferPosition(pt(0, 5))
	if err != nil {
		t.Fatal(err)
	}
	if sp != (ScreenPoint{1, 2}) {
		t.Errorf("(0:5) -> %s, want (1:2)", sp)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{1, 2}); got != pt(0, 5) {
		t.Errorf("(1:2) -> %s, want (0:5)", got)
	}

	rows := d.BufferRowsForScreenRows(0, 3)
	if len(rows) != 3 || rows[0] != 0 || rows[2] != 0 {
		t.Errorf("buffer rows = %v", rows)
	}
	lines := d.ScreenLines(0, 3)
	if lines[0].SoftWrap || !lines[1].SoftWrap {
		t.Errorf("soft wrap flags: %+v", lines)
	}
}

func TestFoldCollapsesRows(t *testing.T) {
	_, d := newDisplay(t, "line0\nline1\nline2\nline3")

	id, err := d.FoldBufferRange(rng(0, 2, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected a fold id")
	}

	if got := strings.Join(screenRows(d), "|"); got != "li"+DefaultFoldPlaceholder+"e2|line3" {
		t.Errorf("rows = %q", got)
	}

	tests := []struct {
		p    buffer.Point
		want ScreenPoint
	}{
		{pt(0, 2), ScreenPoint{0, 2}},
		{pt(1, 0), ScreenPoint{0, 2}},
		{pt(2, 1), ScreenPoint{0, 2}},
		{pt(2, 3), ScreenPoint{0, 3}},
		{pt(2, 5), ScreenPoint{0, 5}},
		{pt(3, 1), ScreenPoint{1, 1}},
	}
	for _, tt := range tests {
		got, err := d.ScreenPositionForBufferPosition(tt.p)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s -> %s, want %s", tt.p, got, tt.want)
		}
	}

	if got := d.BufferPositionForScreenPosition(ScreenPoint{0, 2}); got != pt(0, 2) {
		t.Errorf("placeholder start -> %s", got)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{0, 3}); got != pt(2, 3) {
		t.Errorf("placeholder end -> %s", got)
	}
	if got := d.BufferPositionForScreenPosition(ScreenPoint{1, 0}); got != pt(3, 0) {
		t.Errorf("row after fold -> %s", got)
	}

	for row, want := range []bool{true, true, true, false} {
		if got := d.IsFoldedAtBufferRow(row); got != want {
			t.Errorf("IsFoldedAtBufferRow(%d) = %v", row, got)
		}
	}

	if err := d.Unfold(id); err != nil {
		t.Fatal(err)
	}
	if n := d.ScreenLineCount(); n != 4 {
		t.Errorf("expected 4 rows after unfold, got %d", n)
	}
	if err := d.Unfold(id); !errors.Is(err, ErrInvalidFold) {
		t.Errorf("second unfold: %v", err)
	}
}

func TestFoldIdempotentAndMerging(t *testing.T) {
	_, d := newDisplay(t, "aaaa\nbbbb\ncccc\ndddd")

	a, err := d.FoldBufferRange(rng(0, 1, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	again, err := d.FoldBufferRange(rng(0, 1, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if again != a || len(d.Folds()) != 1 {
		t.Errorf("refolding created a new fold: %d vs %d, %d folds", again, a, len(d.Folds()))
	}

	if _, err := d.FoldBufferRange(rng(1, 1, 2, 2)); err != nil {
		t.Fatal(err)
	}
	folds := d.Folds()
	if len(folds) != 1 || folds[0].Range != rng(0, 1, 2, 2) {
		t.Errorf("expected one merged fold, got %+v", folds)
	}
	if d.IsFold(a) {
		t.Error("merged fold kept its old marker")
	}

	// Adjacent folds stay separate.
	if _, err := d.FoldBufferRange(rng(2, 2, 3, 1)); err != nil {
		t.Fatal(err)
	}
	if n := len(d.Folds()); n != 2 {
		t.Errorf("expected 2 folds, got %d", n)
	}
	if got := strings.Join(screenRows(d), "|"); got != "a⋯⋯ddd" {
		t.Errorf("rows = %q", got)
	}
}

func TestFoldErrors(t *testing.T) {
	_, d := newDisplay(t, "abc\ndef")

	if _, err := d.FoldBufferRange(rng(0, 1, 0, 1)); !errors.Is(err, ErrInvalidFold) {
		t.Errorf("empty fold: %v", err)
	}
	if _, err := d.FoldBufferRange(rng(0, 1, 5, 0)); !errors.Is(err, buffer.ErrOutOfBounds) {
		t.Errorf("out of bounds fold: %v", err)
	}
	if _, err := d.FoldBufferRow(1, 1); !errors.Is(err, ErrInvalidFold) {
		t.Errorf("single row fold: %v", err)
	}
}

func TestFoldBufferRow(t *testing.T) {
	_, d := newDisplay(t, "func f() {\n\tx := 1\n}\nnext")

	if _, err := d.FoldBufferRow(0, 2); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(screenRows(d), "|"); got != "func f() {⋯|next" {
		t.Errorf("rows = %q", got)
	}

	ranges := d.UnfoldBufferRow(1)
	if len(ranges) != 1 || ranges[0] != rng(0, 10, 2, 1) {
		t.Errorf("unfolded %v", ranges)
	}
	if n := d.ScreenLineCount(); n != 4 {
		t.Errorf("expected 4 rows, got %d", n)
	}
}

func TestEditRemovesEmptyFold(t *testing.T) {
	buf, d := newDisplay(t, "abcd\nefgh")
	if _, err := d.FoldBufferRange(rng(0, 1, 0, 3)); err != nil {
		t.Fatal(err)
	}
	if err := buf.Delete(rng(0, 0, 0, 4)); err != nil {
		t.Fatal(err)
	}
	if n := len(d.Folds()); n != 0 {
		t.Errorf("expected the fold to be removed, got %d", n)
	}
	if got := strings.Join(screenRows(d), "|"); got != "|efgh" {
		t.Errorf("rows = %q", got)
	}
}

func TestEditMovesFold(t *testing.T) {
	buf, d := newDisplay(t, "a\nb\nc\nd")
	if _, err := d.FoldBufferRange(rng(1, 0, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Insert(pt(0, 0), "x\ny\n"); err != nil {
		t.Fatal(err)
	}
	folds := d.Folds()
	if len(folds) != 1 || folds[0].Range != rng(3, 0, 4, 1) {
		t.Fatalf("fold = %+v", folds)
	}
	if got := strings.Join(screenRows(d), "|"); got != "x|y|a|⋯|d" {
		t.Errorf("rows = %q", got)
	}
}

func TestScreenChangeEvents(t *testing.T) {
	buf, d := newDisplay(t, "a\nb\nc")
	d.ScreenLineCount()

	var got []ScreenChange
	d.OnDidChangeScreen(func(c ScreenChange) { got = append(got, c) })

	if _, err := buf.Insert(pt(0, 0), "x\ny\n"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	want := ScreenChange{StartRow: 0, OldEnd: 1, NewEnd: 3, Reason: ReasonEdit}
	if got[0] != want {
		t.Errorf("event = %+v, want %+v", got[0], want)
	}

	got = nil
	d.SetSoftWrapColumn(10)
	if len(got) != 1 || !got[0].ToEnd || got[0].Reason != ReasonSettings {
		t.Errorf("settings change = %+v", got)
	}

	got = nil
	d.ScreenLineCount()
	if _, err := d.FoldBufferRange(rng(2, 0, 3, 1)); err != nil {
		t.Fatal(err)
	}
	want = ScreenChange{StartRow: 2, OldEnd: 4, NewEnd: 3, BufferStartRow: 2, Reason: ReasonFold}
	if len(got) != 1 || got[0] != want {
		t.Errorf("fold event = %+v, want %+v", got, want)
	}
}

func TestSameShapeEditKeepsPrefix(t *testing.T) {
	buf, d := newDisplay(t, "one\ntwo\nthree")
	d.ScreenLineCount()

	if _, err := buf.Insert(pt(1, 1), "W"); err != nil {
		t.Fatal(err)
	}
	if d.prefixValid != len(d.lines)+1 {
		t.Errorf("prefix invalidated by a same-shape edit: %d", d.prefixValid)
	}
}

func TestNonBreakingSpans(t *testing.T) {
	spans := func(row int, text string) []layout.Span {
		if i := strings.Index(text, "[[x]]"); i >= 0 {
			return []layout.Span{{Start: i, End: i + 5}}
		}
		return nil
	}
	_, d := newDisplay(t, "ab[[x]]cd", WithSoftWrap(4), WithWordWrap(false), WithNonBreakingSpans(spans))

	rows := screenRows(d)
	if len(rows) != 3 || rows[1] != "[[x]]" {
		t.Errorf("rows = %q", rows)
	}
}

func TestPixelPositions(t *testing.T) {
	_, d := newDisplay(t, "a\nb\nc", WithLineHeight(20), WithCharWidth(8))

	top, left := d.PixelPositionForScreenPosition(ScreenPoint{2, 3})
	if top != 40 || left != 24 {
		t.Errorf("pixel position = %v,%v", top, left)
	}
	if row := d.ScreenRowForPixelTop(45); row != 2 {
		t.Errorf("row for pixel 45 = %d", row)
	}

	d.SetHeightSource(fixedHeights{})
	if top := d.PixelTopForScreenRow(2); top != 50 {
		t.Errorf("top with blocks = %v", top)
	}
}

type fixedHeights struct{}

func (fixedHeights) HeightForScreenRow(row int) float64 {
	if row >= 1 {
		return 10
	}
	return 0
}

func (fixedHeights) RowForPixelPosition(top float64) int { return 0 }

func TestExternalFoldMarkerDestroy(t *testing.T) {
	buf := buffer.New("a\nb\nc")
	idx := marker.NewIndex(buf)
	d := New(buf, idx)
	defer d.Destroy()

	id, err := d.FoldBufferRange(rng(0, 0, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Destroy(id); err != nil {
		t.Fatal(err)
	}
	if d.IsFold(id) || d.ScreenLineCount() != 3 {
		t.Errorf("fold survived its marker: %d rows", d.ScreenLineCount())
	}
}

func TestDestroyedDisplay(t *testing.T) {
	buf := buffer.New("abc")
	idx := marker.NewIndex(buf)
	d := New(buf, idx)
	if _, err := d.FoldBufferRange(rng(0, 0, 0, 2)); err != nil {
		t.Fatal(err)
	}
	d.Destroy()

	if idx.Len() != 0 {
		t.Errorf("fold markers left behind: %d", idx.Len())
	}
	if _, err := d.ScreenPositionForBufferPosition(pt(0, 0)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
	if _, err := buf.Insert(pt(0, 0), "x"); err != nil {
		t.Fatal(err)
	}
}

// positions returns every rune boundary of the buffer in order.
func positions(buf *buffer.Buffer) []buffer.Point {
	var out []buffer.Point
	for row := 0; row <= buf.LastRow(); row++ {
		line, _ := buf.LineForRow(row)
		for col := 0; col < len(line); {
			out = append(out, pt(row, col))
			_, n := utf8.DecodeRuneInString(line[col:])
			col += n
		}
		out = append(out, pt(row, len(line)))
	}
	return out
}

func randomText(r *rand.Rand) string {
	pieces := []string{"a", "bc", " ", "\t", "中", "word ", "\n", "xyz", "  "}
	var sb strings.Builder
	for range 10 + r.IntN(60) {
		sb.WriteString(pieces[r.IntN(len(pieces))])
	}
	return sb.String()
}

func randomFold(r *rand.Rand, buf *buffer.Buffer) buffer.Range {
	ps := positions(buf)
	a, b := ps[r.IntN(len(ps))], ps[r.IntN(len(ps))]
	return buffer.NewRange(a, b)
}

func strictlyFolded(d *Display, p buffer.Point) bool {
	for _, f := range d.Folds() {
		if f.Range.Start.Before(p) && p.Before(f.Range.End) {
			return true
		}
	}
	return false
}

func TestTranslationRoundTripProperty(t *testing.T) {
	for seed := range uint64(40) {
		r := rand.New(rand.NewPCG(seed, 7))
		opts := []Option{
			WithSoftWrap([]int{0, 3, 5, 8, 13}[r.IntN(5)]),
			WithWordWrap(r.IntN(2) == 0),
			WithHangingIndent(r.IntN(3)),
		}
		buf, d := newDisplay(t, randomText(r), opts...)
		for range r.IntN(3) {
			if fr := randomFold(r, buf); !fr.IsEmpty() {
				if _, err := d.FoldBufferRange(fr); err != nil {
					t.Fatalf("seed %d: fold %s: %v", seed, fr, err)
				}
			}
		}

		var prev ScreenPoint
		for i, p := range positions(buf) {
			sp, err := d.ScreenPositionForBufferPosition(p)
			if err != nil {
				t.Fatalf("seed %d: %s: %v", seed, p, err)
			}
			if i > 0 && sp.Compare(prev) < 0 {
				t.Errorf("seed %d: %s -> %s precedes %s", seed, p, sp, prev)
			}
			prev = sp
			if strictlyFolded(d, p) {
				continue
			}
			if back := d.BufferPositionForScreenPosition(sp); back != p {
				t.Errorf("seed %d: %s -> %s -> %s", seed, p, sp, back)
			}
		}
	}
}

func TestIncrementalMatchesFreshProperty(t *testing.T) {
	for seed := range uint64(40) {
		r := rand.New(rand.NewPCG(seed, 11))
		wrap := []int{0, 4, 7}[r.IntN(3)]
		buf, d := newDisplay(t, randomText(r), WithSoftWrap(wrap))
		d.ScreenLineCount()

		for range 1 + r.IntN(3) {
			if fr := randomFold(r, buf); !fr.IsEmpty() {
				if _, err := d.FoldBufferRange(fr); err != nil {
					t.Fatal(err)
				}
			}
		}

		for step := range 8 {
			edit := randomFold(r, buf)
			text := []string{"", "q", "\n", "ab\ncd", "中\t"}[r.IntN(5)]
			if _, err := buf.SetTextInRange(edit, text); err != nil {
				t.Fatal(err)
			}
			if r.IntN(2) == 0 {
				d.ScreenLineCount()
			}

			fresh := New(buf, marker.NewIndex(buf), WithSoftWrap(wrap))
			for _, f := range d.Folds() {
				if _, err := fresh.FoldBufferRange(f.Range); err != nil {
					t.Fatal(err)
				}
			}
			got := strings.Join(screenRows(d), "|")
			want := strings.Join(screenRows(fresh), "|")
			fresh.Destroy()
			if got != want {
				t.Fatalf("seed %d step %d: incremental %q, fresh %q", seed, step, got, want)
			}
		}
	}
}

func TestFoldUnfoldRestoresMapping(t *testing.T) {
	buf, d := newDisplay(t, "alpha beta\n\tgamma\ndelta 中文\nepsilon\nzeta", WithSoftWrap(6))

	snapshot := func() []ScreenPoint {
		var out []ScreenPoint
		for _, p := range positions(buf) {
			sp, err := d.ScreenPositionForBufferPosition(p)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, sp)
		}
		return out
	}

	want := snapshot()
	rows := d.ScreenLineCount()
	id, err := d.FoldBufferRange(rng(0, 3, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if d.ScreenLineCount() >= rows {
		t.Fatal("fold did not collapse anything")
	}
	if err := d.Unfold(id); err != nil {
		t.Fatal(err)
	}

	got := snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: %s after unfold, %s before fold", i, got[i], want[i])
		}
	}
}
