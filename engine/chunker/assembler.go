package chunker

import (
	"strings"
	"unicode/utf8"
)

// assemble greedily packs segments into chunk drafts under the MaxChars
// budget. A new chunk is pre-seeded with the trailing OverlapChars runes of
// the chunk it follows, except when the overlap window would consist solely
// of a heading. A segment that exactly fills the remaining budget stays in
// the current chunk.
//
// Prose segments larger than MaxChars are split into sentences first, so
// only atomic segments (code fences, headings) ever produce an oversized
// chunk. Those are emitted unseeded and untruncated: losing code is worse
// than blowing the budget.
func (c *Chunker) assemble(segs []Segment) []draft {
	if len(segs) == 0 {
		return nil
	}
	segs = explodeOversized(segs, c.cfg.MaxChars)

	var (
		out     []draft
		buf     strings.Builder
		seed    string // pending overlap prefix for the next chunk
		seedLen int    // runes of seed currently in buf
		owned   int    // runes appended beyond the seed
		start   int    // source offset of the first owned byte
		tail    Segment
	)

	closeChunk := func() {
		out = append(out, draft{content: buf.String(), seedLen: seedLen, start: start})
		seed = overlapSeed(buf.String(), tail, c.cfg.OverlapChars)
		buf.Reset()
		seedLen, owned = 0, 0
	}

	for _, seg := range segs {
		n := utf8.RuneCountInString(seg.Text)

		if owned > 0 && seedLen+owned+n > c.cfg.MaxChars {
			closeChunk()
		}
		if owned == 0 {
			if n > c.cfg.MaxChars {
				// Oversized atomic segment: its own chunk, maps 1:1 to the
				// segment so no seed is prepended.
				buf.Reset()
				out = append(out, draft{content: seg.Text, start: seg.Start})
				seed = overlapSeed(seg.Text, seg, c.cfg.OverlapChars)
				seedLen = 0
				continue
			}
			// The seed never pushes a chunk past the budget: trim it so the
			// pending segment still fits.
			if room := c.cfg.MaxChars - n; utf8.RuneCountInString(seed) > room {
				seed = lastRunes(seed, room)
			}
			buf.WriteString(seed)
			seedLen = utf8.RuneCountInString(seed)
			start = seg.Start
		}
		buf.WriteString(seg.Text)
		owned += n
		tail = seg
	}
	if owned > 0 {
		out = append(out, draft{content: buf.String(), seedLen: seedLen, start: start})
	}
	return out
}

// overlapSeed returns the trailing overlap window of a closed chunk, or ""
// when overlap is disabled or the window lies entirely inside a trailing
// heading segment (a heading at a chunk boundary is not useful context).
func overlapSeed(closed string, tail Segment, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	total := utf8.RuneCountInString(closed)
	window := overlap
	if window > total {
		window = total
	}
	if tail.Kind == KindHeading && utf8.RuneCountInString(tail.Text) >= window {
		return ""
	}
	return lastRunes(closed, window)
}

// explodeOversized replaces prose segments longer than max with smaller
// pieces split at sentence boundaries, then at whitespace, then at rune
// boundaries as a last resort. Code and heading segments pass through
// untouched. Every byte of the input survives in the output pieces.
func explodeOversized(segs []Segment, max int) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if utf8.RuneCountInString(seg.Text) <= max ||
			seg.Kind == KindCode || seg.Kind == KindHeading {
			out = append(out, seg)
			continue
		}
		off := seg.Start
		for _, sentence := range splitSentences(seg.Text) {
			for _, piece := range hardSplit(sentence, max) {
				out = append(out, Segment{
					Text:  piece,
					Kind:  seg.Kind,
					Order: seg.Order,
					Start: off,
				})
				off += len(piece)
			}
		}
	}
	return out
}

// splitSentences cuts s after sentence-ending punctuation followed by
// whitespace. The whitespace stays attached to the preceding sentence so
// that concatenating the pieces reproduces s exactly.
func splitSentences(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j > i+1 && j < len(s) {
				parts = append(parts, s[start:j])
				start = j
				i = j - 1
			}
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// hardSplit breaks s into pieces of at most max runes, preferring to cut
// after the last whitespace inside the window.
func hardSplit(s string, max int) []string {
	if utf8.RuneCountInString(s) <= max {
		return []string{s}
	}
	var parts []string
	runes := []rune(s)
	for len(runes) > max {
		cut := max
		for i := max - 1; i > 0; i-- {
			if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// lastRunes returns the final n runes of s.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
