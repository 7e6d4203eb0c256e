package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/tessera/internal/engine"
	"github.com/dshills/tessera/internal/renderer/decoration"
	"github.com/dshills/tessera/internal/renderer/display"
	"github.com/dshills/tessera/internal/renderer/heightcache"
	"github.com/dshills/tessera/internal/renderer/viewport"
)

// gridRow is one printed screen row.
type gridRow struct {
	Row       int      `json:"row"`
	BufferRow int      `json:"buffer_row"`
	Top       float64  `json:"top"`
	Text      string   `json:"text"`
	SoftWrap  bool     `json:"soft_wrap,omitempty"`
	Folded    bool     `json:"folded,omitempty"`
	Before    float64  `json:"block_before,omitempty"`
	After     float64  `json:"block_after,omitempty"`
	Classes   []string `json:"classes,omitempty"`
}

// screenGrid collects every screen row of e.
func screenGrid(e *engine.Engine) []gridRow {
	return screenRows(e, 0, e.ScreenLineCount())
}

// visibleGrid collects the rows a viewport of height pixels shows when
// scrolled to top. A height of 0 shows every row.
func visibleGrid(e *engine.Engine, top, height float64) []gridRow {
	if height <= 0 {
		return screenGrid(e)
	}
	v := viewport.New(e, height)
	v.ScrollTo(top)
	start, end := v.VisibleRows()
	return screenRows(e, start, end)
}

// screenRows collects screen rows [start, end) of e.
func screenRows(e *engine.Engine, start, end int) []gridRow {
	lines := e.Display().ScreenLines(start, end)
	rows := make([]gridRow, 0, len(lines))

	for _, l := range lines {
		r := gridRow{
			Row:       l.Row,
			BufferRow: l.BufferRow,
			Top:       e.PixelTopForScreenRow(l.Row),
			Text:      l.Text,
			SoftWrap:  l.SoftWrap,
			Folded:    l.Folded,
		}
		for _, d := range e.DecorationsForScreenRowRange(l.Row, l.Row) {
			if d.IsBlock() {
				if d.Properties.BlockPosition == heightcache.After {
					r.After += d.Height
				} else {
					r.Before += d.Height
				}
				continue
			}
			if d.Properties.Class != "" {
				r.Classes = append(r.Classes, d.Kind.String()+":"+d.Properties.Class)
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// writeGrid prints rows as a numbered listing. Wrapped rows show a blank
// buffer row number and block space is drawn as a marker line.
func writeGrid(w io.Writer, rows []gridRow) error {
	last := 0
	if len(rows) > 0 {
		last = rows[len(rows)-1].Row
	}
	width := len(strconv.Itoa(last))
	for _, r := range rows {
		if r.Before > 0 {
			if _, err := fmt.Fprintf(w, "%*s %*s ┆ block %g\n", width, "", width, "", r.Before); err != nil {
				return err
			}
		}

		bufferRow := strconv.Itoa(r.BufferRow)
		if r.SoftWrap {
			bufferRow = "↪"
		}
		line := fmt.Sprintf("%*d %*s │ %s", width, r.Row, width, bufferRow, r.Text)
		if len(r.Classes) > 0 {
			line += "  [" + strings.Join(r.Classes, " ") + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		if r.After > 0 {
			if _, err := fmt.Fprintf(w, "%*s %*s ┆ block %g\n", width, "", width, "", r.After); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeGridJSON(w io.Writer, rows []gridRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// parseFold parses "START-END" buffer rows.
func parseFold(s string) (start, end int, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("fold %q: want START-END", s)
	}
	if start, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("fold %q: %w", s, err)
	}
	if end, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, fmt.Errorf("fold %q: %w", s, err)
	}
	return start, end, nil
}

// applyFolds folds each START-END range under its first row.
func applyFolds(d *display.Display, folds []string) error {
	for _, f := range folds {
		start, end, err := parseFold(f)
		if err != nil {
			return err
		}
		if _, err := d.FoldBufferRow(start, end); err != nil {
			return err
		}
	}
	return nil
}

// decorationSummary is used by the script command's listing.
func decorationSummary(d decoration.Decoration) string {
	s := fmt.Sprintf("#%d %s marker=%d", d.ID, d.Kind, d.Marker)
	if d.Properties.Class != "" {
		s += " class=" + d.Properties.Class
	}
	if d.IsBlock() {
		s += fmt.Sprintf(" height=%g", d.Height)
	}
	return s
}
