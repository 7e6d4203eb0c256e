package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DefaultTabWidth is used when a non-positive tab width is configured.
const DefaultTabWidth = 4

// NextTabStop returns the next tab stop column after the given column.
func NextTabStop(col, tabWidth int) int {
	return col + TabStopOffset(col, tabWidth)
}

// TabStopOffset returns how many cells a tab at the given column expands to.
func TabStopOffset(col, tabWidth int) int {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}
	return tabWidth - (col % tabWidth)
}

// GraphemeWidth returns the cell width of one grapheme cluster that starts at
// cell column col.
func GraphemeWidth(cluster string, col, tabWidth int) int {
	if cluster == "\t" {
		return TabStopOffset(col, tabWidth)
	}

	w := runewidth.StringWidth(cluster)
	if w < 0 {
		w = 0
	}
	if w == 0 {
		if fallback := uniseg.StringWidth(cluster); fallback > w {
			w = fallback
		}
	}
	return w
}

// StringWidth returns the cell width of s starting at column 0.
func StringWidth(s string, tabWidth int) int {
	col := 0
	state := -1
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		col += GraphemeWidth(cluster, col, tabWidth)
	}
	return col
}

// ExpandTabs returns s with tabs replaced by spaces, starting at column col.
func ExpandTabs(s string, col, tabWidth int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	state := -1
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		w := GraphemeWidth(cluster, col, tabWidth)
		if cluster == "\t" {
			sb.WriteString(strings.Repeat(" ", w))
		} else {
			sb.WriteString(cluster)
		}
		col += w
	}
	return sb.String()
}

func isWhitespace(cluster string) bool {
	r, _ := utf8.DecodeRuneInString(cluster)
	return unicode.IsSpace(r)
}
