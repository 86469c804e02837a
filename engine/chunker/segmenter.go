package chunker

import "strings"

// SplitSegments splits raw document text into ordered structural segments.
// It never fails: markup it cannot classify degrades to KindOther, and
// whitespace-only input yields nil (callers treat that as zero chunks).
//
// Blank lines between units are attached to the trailing end of the
// preceding segment, and blank lines before the first unit to its start,
// so the segments jointly cover every byte of the input.
func SplitSegments(content string) []Segment {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	lines, starts := splitLines(content)

	type block struct {
		first, last int
		kind        SegmentKind
	}
	var blocks []block

	i := 0
	for i < len(lines) {
		line := lines[i]
		switch {
		case isBlank(line):
			if len(blocks) > 0 {
				blocks[len(blocks)-1].last = i
			}
			i++

		case fenceMarker(line) != "":
			fence := fenceMarker(line)
			j := i + 1
			for j < len(lines) && fenceMarker(lines[j]) != fence {
				j++
			}
			if j < len(lines) {
				// Closed fence: one code segment regardless of inner blanks.
				blocks = append(blocks, block{first: i, last: j, kind: KindCode})
				i = j + 1
			} else {
				// Unclosed fence runs to EOF; malformed markup, not an error.
				blocks = append(blocks, block{first: i, last: len(lines) - 1, kind: KindOther})
				i = len(lines)
			}

		case isHeading(line):
			blocks = append(blocks, block{first: i, last: i, kind: KindHeading})
			i++

		case isThematicBreak(line):
			blocks = append(blocks, block{first: i, last: i, kind: KindOther})
			i++

		case isListItem(line):
			j := i + 1
			for j < len(lines) && isContinuation(lines[j]) {
				j++
			}
			blocks = append(blocks, block{first: i, last: j - 1, kind: KindListItem})
			i = j

		default:
			j := i + 1
			for j < len(lines) && !isBlank(lines[j]) && !isStructural(lines[j]) {
				j++
			}
			blocks = append(blocks, block{first: i, last: j - 1, kind: KindParagraph})
			i = j
		}
	}

	if len(blocks) == 0 {
		return nil
	}
	// Leading blank lines belong to the first segment.
	blocks[0].first = 0

	segs := make([]Segment, len(blocks))
	for order, b := range blocks {
		start := starts[b.first]
		end := starts[b.last] + len(lines[b.last])
		segs[order] = Segment{
			Text:  content[start:end],
			Kind:  b.kind,
			Order: order,
			Start: start,
		}
	}
	return segs
}

// splitLines cuts content after every newline, returning the lines (with
// their terminators) and the byte offset of each line.
func splitLines(content string) ([]string, []int) {
	var lines []string
	var starts []int
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i+1])
			starts = append(starts, start)
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
		starts = append(starts, start)
	}
	return lines, starts
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// fenceMarker returns the fence introducer ("```" or "~~~") if the line
// opens or closes a fenced code region.
func fenceMarker(line string) string {
	t := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(t, "```") {
		return "```"
	}
	if strings.HasPrefix(t, "~~~") {
		return "~~~"
	}
	return ""
}

// isHeading matches ATX headings: 1-6 leading '#' followed by whitespace.
func isHeading(line string) bool {
	t := strings.TrimRight(strings.TrimLeft(line, " \t"), "\r\n")
	n := 0
	for n < len(t) && t[n] == '#' {
		n++
	}
	if n < 1 || n > 6 {
		return false
	}
	return n == len(t) || t[n] == ' ' || t[n] == '\t'
}

// isListItem matches bullet markers (-, *, +) and ordered markers (1. / 1)).
func isListItem(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if len(t) >= 2 && (t[0] == '-' || t[0] == '*' || t[0] == '+') && (t[1] == ' ' || t[1] == '\t') {
		return true
	}
	n := 0
	for n < len(t) && t[n] >= '0' && t[n] <= '9' {
		n++
	}
	if n == 0 || n+1 >= len(t) {
		return false
	}
	return (t[n] == '.' || t[n] == ')') && (t[n+1] == ' ' || t[n+1] == '\t')
}

// isThematicBreak matches horizontal rules: three or more of the same
// marker character on a line of its own.
func isThematicBreak(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return false
	}
	c := t[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	for i := 1; i < len(t); i++ {
		if t[i] != c {
			return false
		}
	}
	return true
}

// isContinuation reports whether a line extends the current list item:
// indented, non-blank text.
func isContinuation(line string) bool {
	if isBlank(line) {
		return false
	}
	return line[0] == ' ' || line[0] == '\t'
}

func isStructural(line string) bool {
	return fenceMarker(line) != "" || isHeading(line) || isThematicBreak(line) || isListItem(line)
}
