package buffer

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
	LineEndingNone                   // final line of the buffer
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "\\n"
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	case LineEndingNone:
		return ""
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	case LineEndingNone:
		return ""
	default:
		return "\n"
	}
}

// ParseLineEnding maps a configuration name ("lf", "crlf", "cr") to a
// LineEnding.
func ParseLineEnding(name string) (LineEnding, bool) {
	switch name {
	case "lf", "LF", "\n":
		return LineEndingLF, true
	case "crlf", "CRLF", "\r\n":
		return LineEndingCRLF, true
	case "cr", "CR", "\r":
		return LineEndingCR, true
	}
	return LineEndingLF, false
}

// Line is a single buffer line: its text without terminator, and the
// terminator that followed it in the source.
type Line struct {
	Text   string
	Ending LineEnding
}

// splitLines breaks text into lines on \r\n, \n and \r. The returned slice
// always has at least one element and its last element has LineEndingNone.
func splitLines(text string) []Line {
	lines := make([]Line, 0, 1)
	start := 0
	i := 0
	for i < len(text) {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				lines = append(lines, Line{Text: text[start:i], Ending: LineEndingCRLF})
				i += 2
			} else {
				lines = append(lines, Line{Text: text[start:i], Ending: LineEndingCR})
				i++
			}
			start = i
		case '\n':
			lines = append(lines, Line{Text: text[start:i], Ending: LineEndingLF})
			i++
			start = i
		default:
			i++
		}
	}
	return append(lines, Line{Text: text[start:], Ending: LineEndingNone})
}

// DetectLineEnding returns a LineEnding based on the most common line ending in the text.
// Returns LineEndingLF if no line endings are found.
func DetectLineEnding(text string) LineEnding {
	var lfCount, crlfCount, crCount int

	i := 0
	for i < len(text) {
		if i+1 < len(text) && text[i] == '\r' && text[i+1] == '\n' {
			crlfCount++
			i += 2
		} else if text[i] == '\r' {
			crCount++
			i++
		} else if text[i] == '\n' {
			lfCount++
			i++
		} else {
			i++
		}
	}

	// Return the most common line ending
	if crlfCount >= lfCount && crlfCount >= crCount {
		if crlfCount > 0 {
			return LineEndingCRLF
		}
	}
	if crCount >= lfCount && crCount >= crlfCount {
		if crCount > 0 {
			return LineEndingCR
		}
	}

	return LineEndingLF
}
