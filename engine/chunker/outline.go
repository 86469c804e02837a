package chunker

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Outline maps byte offsets in a document to the heading path in effect at
// that offset, so chunks can carry a "Section > Subsection" breadcrumb.
// Built once per document with goldmark; a document with no recognizable
// headings yields an empty outline and empty sections.
type Outline struct {
	marks []outlineMark
}

type outlineMark struct {
	offset int
	path   string
}

// BuildOutline parses content as markdown and records the heading path at
// every heading position.
func BuildOutline(content string) *Outline {
	o := &Outline{}
	if content == "" {
		return o
	}
	src := []byte(content)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	trail := make([]string, 7) // heading text by level, index 1-6
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		title := strings.TrimSpace(string(headingText(h, src)))
		if title == "" {
			return ast.WalkContinue, nil
		}
		for lvl := h.Level; lvl < len(trail); lvl++ {
			trail[lvl] = ""
		}
		trail[h.Level] = title

		var parts []string
		for _, t := range trail[1 : h.Level+1] {
			if t != "" {
				parts = append(parts, t)
			}
		}
		o.marks = append(o.marks, outlineMark{
			offset: lineStart(src, h.Lines().At(0).Start),
			path:   strings.Join(parts, " > "),
		})
		return ast.WalkContinue, nil
	})
	return o
}

// SectionAt returns the heading path in effect at the given byte offset,
// or "" before the first heading.
func (o *Outline) SectionAt(offset int) string {
	i := sort.Search(len(o.marks), func(i int) bool {
		return o.marks[i].offset > offset
	})
	if i == 0 {
		return ""
	}
	return o.marks[i-1].path
}

// headingText collects the literal text of a heading node.
func headingText(n ast.Node, src []byte) []byte {
	var buf []byte
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf = append(buf, t.Segment.Value(src)...)
		}
	}
	return buf
}

// lineStart walks back from a text offset to the beginning of its line, so
// marks land on the '#' marker rather than the heading text.
func lineStart(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}
