package buffer

import (
	"errors"
	"strings"
	"testing"
)

func pt(row, col int) Point { return Point{Row: row, Column: col} }

func rng(sr, sc, er, ec int) Range { return Range{Start: pt(sr, sc), End: pt(er, ec)} }

func TestNewEmpty(t *testing.T) {
	b := New("")

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
	if b.LineEndingForRow(0) != LineEndingNone {
		t.Errorf("last line should have no ending, got %v", b.LineEndingForRow(0))
	}
}

func TestNewMultiline(t *testing.T) {
	b := New("line1\nline2\r\nline3\rline4")

	if b.LineCount() != 4 {
		t.Fatalf("expected 4 lines, got %d", b.LineCount())
	}

	tests := []struct {
		row    int
		text   string
		ending LineEnding
	}{
		{0, "line1", LineEndingLF},
		{1, "line2", LineEndingCRLF},
		{2, "line3", LineEndingCR},
		{3, "line4", LineEndingNone},
	}
	for _, tt := range tests {
		got, err := b.LineForRow(tt.row)
		if err != nil {
			t.Fatalf("LineForRow(%d): %v", tt.row, err)
		}
		if got != tt.text {
			t.Errorf("row %d: expected %q, got %q", tt.row, tt.text, got)
		}
		if b.LineEndingForRow(tt.row) != tt.ending {
			t.Errorf("row %d: expected ending %v, got %v", tt.row, tt.ending, b.LineEndingForRow(tt.row))
		}
	}

	if b.Text() != "line1\nline2\r\nline3\rline4" {
		t.Errorf("Text should preserve endings, got %q", b.Text())
	}
}

func TestNewFromReader(t *testing.T) {
	b, err := NewFromReader(strings.NewReader("a\r\nb"))
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	if b.LineCount() != 2 || b.LineEndingForRow(0) != LineEndingCRLF {
		t.Errorf("unexpected lines: count=%d ending=%v", b.LineCount(), b.LineEndingForRow(0))
	}
}

func TestTrailingNewline(t *testing.T) {
	b := New("abc\n")
	if b.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", b.LineCount())
	}
	if b.Extent() != pt(1, 0) {
		t.Errorf("expected extent (1:0), got %s", b.Extent())
	}
}

func TestGetText(t *testing.T) {
	b := New("abc\ndef\r\nghi")

	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"single line", rng(0, 1, 0, 3), "bc"},
		{"across lf", rng(0, 2, 1, 1), "c\nd"},
		{"across crlf", rng(1, 0, 2, 3), "def\r\nghi"},
		{"empty", rng(1, 1, 1, 1), ""},
		{"whole", rng(0, 0, 2, 3), "abc\ndef\r\nghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.GetText(tt.r)
			if err != nil {
				t.Fatalf("GetText: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGetTextOutOfBounds(t *testing.T) {
	b := New("abc\ndef")

	_, err := b.GetText(rng(0, 0, 5, 0))
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}

	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected *OutOfBoundsError, got %T", err)
	}
	if oob.Point != pt(5, 0) || oob.Extent != pt(1, 3) {
		t.Errorf("unexpected error details: %+v", oob)
	}

	if _, err := b.GetText(rng(0, 4, 0, 4)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("column past line end: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := b.GetText(rng(1, 0, 0, 0)); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("reversed range: expected ErrRangeInvalid, got %v", err)
	}
}

func TestSetTextInRange(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		r        Range
		text     string
		want     string
		newRange Range
	}{
		{"insert inline", "abc\ndef\nghi", rng(1, 0, 1, 0), "XY", "abc\nXYdef\nghi", rng(1, 0, 1, 2)},
		{"insert newline", "abc", rng(0, 1, 0, 1), "\n", "a\nbc", rng(0, 1, 1, 0)},
		{"insert multiline", "abc", rng(0, 1, 0, 1), "1\n2\n3", "a1\n2\n3bc", rng(0, 1, 2, 1)},
		{"delete across lines", "abc\ndef\nghi", rng(0, 1, 2, 1), "", "ahi", rng(0, 1, 0, 1)},
		{"replace", "hello world", rng(0, 6, 0, 11), "there", "hello there", rng(0, 6, 0, 11)},
		{"replace with lines", "abc\ndef", rng(0, 2, 1, 1), "Z\nY", "abZ\nYef", rng(0, 2, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.initial)
			got, err := b.SetTextInRange(tt.r, tt.text)
			if err != nil {
				t.Fatalf("SetTextInRange: %v", err)
			}
			if b.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, b.Text())
			}
			if got != tt.newRange {
				t.Errorf("expected new range %s, got %s", tt.newRange, got)
			}
		})
	}
}

func TestSetTextInRangeNormalizesLineEndings(t *testing.T) {
	b := New("ab", WithCRLF())
	if _, err := b.Insert(pt(0, 1), "x\ny\rz"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.Text() != "ax\r\ny\r\nzb" {
		t.Errorf("expected CRLF endings, got %q", b.Text())
	}

	raw := New("ab", WithCRLF(), WithNormalizeLineEndings(false))
	if _, err := raw.Insert(pt(0, 1), "x\ny"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if raw.Text() != "ax\nyb" {
		t.Errorf("expected original endings, got %q", raw.Text())
	}
}

func TestSetTextInRangePreservesTailEnding(t *testing.T) {
	b := New("abc\r\ndef")
	if _, err := b.Insert(pt(0, 3), "\n"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.LineEndingForRow(0) != LineEndingLF || b.LineEndingForRow(1) != LineEndingCRLF {
		t.Errorf("unexpected endings %v %v", b.LineEndingForRow(0), b.LineEndingForRow(1))
	}
	if b.Text() != "abc\n\r\ndef" {
		t.Errorf("unexpected text %q", b.Text())
	}
}

func TestSetTextInRangeFailsWithoutMutation(t *testing.T) {
	b := New("abc")
	events := 0
	b.OnDidChange(func(ChangeEvent) { events++ })

	if _, err := b.SetTextInRange(rng(0, 0, 3, 0), "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if b.Text() != "abc" || events != 0 || b.Revision() != 0 {
		t.Errorf("failed edit must not mutate: text=%q events=%d rev=%d", b.Text(), events, b.Revision())
	}
}

func TestChangeEvent(t *testing.T) {
	b := New("abc\ndef\nghi")
	var got []ChangeEvent
	b.OnDidChange(func(ev ChangeEvent) { got = append(got, ev) })

	if _, err := b.SetTextInRange(rng(0, 1, 1, 1), "Z\nY\nX"); err != nil {
		t.Fatalf("SetTextInRange: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	ev := got[0]
	if ev.OldLineCount != 3 || ev.NewLineCount != 4 {
		t.Errorf("line counts: %d -> %d", ev.OldLineCount, ev.NewLineCount)
	}
	c := ev.Changes[0]
	if c.OldText != "bc\nd" || c.NewText != "Z\nY\nX" {
		t.Errorf("unexpected texts %q %q", c.OldText, c.NewText)
	}
	if c.NewRange != rng(0, 1, 2, 1) {
		t.Errorf("unexpected new range %s", c.NewRange)
	}
	if span := ev.RowSpan(); span != (RowSpan{Start: 0, OldEnd: 1, NewEnd: 2}) {
		t.Errorf("unexpected row span %+v", span)
	}
	if ev.Revision != 1 || b.Revision() != 1 {
		t.Errorf("expected revision 1, got %d/%d", ev.Revision, b.Revision())
	}
}

func TestClipPosition(t *testing.T) {
	b := New("héllo\nab")

	tests := []struct {
		in, want Point
	}{
		{pt(-1, 3), pt(0, 0)},
		{pt(0, -2), pt(0, 0)},
		{pt(0, 2), pt(0, 1)}, // inside é
		{pt(0, 99), pt(0, 6)},
		{pt(9, 0), pt(1, 2)},
		{pt(1, 1), pt(1, 1)},
	}
	for _, tt := range tests {
		if got := b.ClipPosition(tt.in); got != tt.want {
			t.Errorf("ClipPosition(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDestroy(t *testing.T) {
	b := New("abc")
	calls := 0
	b.OnDidChange(func(ChangeEvent) { calls++ })
	b.Destroy()

	if _, err := b.Insert(pt(0, 0), "x"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Insert after destroy: expected ErrDestroyed, got %v", err)
	}
	if _, err := b.LineForRow(0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("LineForRow after destroy: expected ErrDestroyed, got %v", err)
	}
	if _, err := b.GetText(rng(0, 0, 0, 0)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("GetText after destroy: expected ErrDestroyed, got %v", err)
	}
	if b.Text() != "" || b.LineCount() != 0 {
		t.Errorf("destroyed buffer should report nothing")
	}
	if calls != 0 {
		t.Errorf("no events expected, got %d", calls)
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
	}{
		{"", LineEndingLF},
		{"a\nb\nc", LineEndingLF},
		{"a\r\nb\r\nc\n", LineEndingCRLF},
		{"a\rb\rc", LineEndingCR},
	}
	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.want {
			t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	b := New("", WithDetectedLineEnding("x\r\ny"))
	if b.LineEnding() != LineEndingCRLF {
		t.Errorf("expected detected CRLF, got %v", b.LineEnding())
	}
}

func TestPointTraversal(t *testing.T) {
	tests := []struct {
		origin, p Point
	}{
		{pt(0, 0), pt(0, 5)},
		{pt(2, 3), pt(2, 7)},
		{pt(2, 3), pt(4, 1)},
	}
	for _, tt := range tests {
		ext := tt.p.TraversalFrom(tt.origin)
		if got := tt.origin.Traverse(ext); got != tt.p {
			t.Errorf("%s.Traverse(%s) = %s, want %s", tt.origin, ext, got, tt.p)
		}
	}
}

func TestRangeRelations(t *testing.T) {
	a := rng(0, 0, 0, 5)
	b := rng(0, 5, 0, 8)

	if !a.Intersects(b) {
		t.Error("touching ranges should intersect")
	}
	if a.Overlaps(b) {
		t.Error("touching ranges should not overlap")
	}
	if got := a.Union(b); got != rng(0, 0, 0, 8) {
		t.Errorf("unexpected union %s", got)
	}
	if NewRange(pt(3, 1), pt(1, 0)) != rng(1, 0, 3, 1) {
		t.Error("NewRange should order its points")
	}
}
