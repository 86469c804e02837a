package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func mustChunker(t *testing.T, maxChars, overlap int) *Chunker {
	t.Helper()
	c, err := New(Config{MaxChars: maxChars, OverlapChars: overlap})
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}
	return c
}

func seg(text string, kind SegmentKind, order, start int) Segment {
	return Segment{Text: text, Kind: kind, Order: order, Start: start}
}

func TestAssemble_PacksUnderBudget(t *testing.T) {
	c := mustChunker(t, 20, 0)
	segs := []Segment{
		seg("aaaaa", KindParagraph, 0, 0),
		seg("bbbbb", KindParagraph, 1, 5),
		seg("ccccc", KindParagraph, 2, 10),
		seg("ddddd", KindParagraph, 3, 15),
		seg("eeeee", KindParagraph, 4, 20),
	}
	drafts := c.assemble(segs)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(drafts))
	}
	// Four segments exactly fill the budget (tie-break: included).
	if drafts[0].content != "aaaaabbbbbcccccddddd" {
		t.Errorf("first chunk should be filled to the budget, got %q", drafts[0].content)
	}
	if drafts[1].content != "eeeee" {
		t.Errorf("second chunk wrong: %q", drafts[1].content)
	}
}

func TestAssemble_OverlapSeedsNextChunk(t *testing.T) {
	c := mustChunker(t, 12, 4)
	segs := []Segment{
		seg("aaaaaaaaaa", KindParagraph, 0, 0),
		seg("bbbbb", KindParagraph, 1, 10),
	}
	drafts := c.assemble(segs)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(drafts))
	}
	if drafts[1].content != "aaaa"+"bbbbb" {
		t.Errorf("second chunk should start with overlap seed, got %q", drafts[1].content)
	}
	if drafts[1].seedLen != 4 {
		t.Errorf("expected seedLen 4, got %d", drafts[1].seedLen)
	}
	if drafts[1].start != 10 {
		t.Errorf("owned content starts at 10, got %d", drafts[1].start)
	}
}

func TestAssemble_HeadingNeverSeedsOverlap(t *testing.T) {
	c := mustChunker(t, 30, 10)
	segs := []Segment{
		seg(strings.Repeat("a", 20), KindParagraph, 0, 0),
		seg("# Section\n", KindHeading, 1, 20),
		seg(strings.Repeat("b", 25), KindParagraph, 2, 30),
	}
	drafts := c.assemble(segs)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(drafts))
	}
	// The closed chunk ends in a heading wider than the overlap window, so
	// the next chunk starts clean.
	if drafts[1].seedLen != 0 {
		t.Errorf("heading tail must not seed overlap, seedLen=%d", drafts[1].seedLen)
	}
	if drafts[1].content != strings.Repeat("b", 25) {
		t.Errorf("unexpected second chunk: %q", drafts[1].content)
	}
}

func TestAssemble_OversizedSegmentEmittedWhole(t *testing.T) {
	c := mustChunker(t, 10, 3)
	big := strings.Repeat("x", 37)
	segs := []Segment{
		seg("aaaa", KindParagraph, 0, 0),
		seg(big, KindCode, 1, 4),
		seg("bbbb", KindParagraph, 2, 41),
	}
	drafts := c.assemble(segs)
	if len(drafts) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(drafts))
	}
	if drafts[1].content != big {
		t.Error("oversized segment must be emitted untruncated")
	}
	if drafts[1].seedLen != 0 {
		t.Error("oversized chunk must not carry a seed")
	}
	// The chunk after the oversized one still gets overlap context from it.
	if drafts[2].content != "xxx"+"bbbb" {
		t.Errorf("expected seed from oversized tail, got %q", drafts[2].content)
	}
}

func TestAssemble_SeedTrimmedToBudget(t *testing.T) {
	c := mustChunker(t, 20, 15)
	segs := []Segment{
		seg(strings.Repeat("a", 20), KindParagraph, 0, 0),
		seg(strings.Repeat("b", 18), KindParagraph, 1, 20),
	}
	drafts := c.assemble(segs)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(drafts))
	}
	if n := utf8.RuneCountInString(drafts[1].content); n > 20 {
		t.Errorf("seeded chunk exceeds budget: %d runes", n)
	}
	if drafts[1].seedLen != 2 {
		t.Errorf("seed should be trimmed to fit, seedLen=%d", drafts[1].seedLen)
	}
}

func TestAssemble_LongProseIsSplitNotOversized(t *testing.T) {
	c := mustChunker(t, 200, 20)
	long := strings.Repeat("word ", 500)
	drafts := c.assemble([]Segment{seg(long, KindParagraph, 0, 0)})
	if len(drafts) < 2 {
		t.Fatalf("long prose must span multiple chunks, got %d", len(drafts))
	}
	for i, d := range drafts {
		if n := utf8.RuneCountInString(d.content); n > 200 {
			t.Errorf("chunk %d exceeds budget: %d runes", i, n)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Hello world. Second one! tail")
	want := []string{"Hello world. ", "Second one! ", "tail"}
	if len(got) != len(want) {
		t.Fatalf("expected %d parts, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if strings.Join(got, "") != "Hello world. Second one! tail" {
		t.Error("sentence split must preserve every byte")
	}
}

func TestHardSplit(t *testing.T) {
	s := strings.Repeat("word ", 10)
	parts := hardSplit(s, 12)
	if strings.Join(parts, "") != s {
		t.Error("hard split must preserve every byte")
	}
	for i, p := range parts {
		if utf8.RuneCountInString(p) > 12 {
			t.Errorf("piece %d over budget: %q", i, p)
		}
	}
	if parts[0] != "word word " {
		t.Errorf("expected cut after last space, got %q", parts[0])
	}
}

func TestAssemble_Empty(t *testing.T) {
	c := mustChunker(t, 100, 10)
	if drafts := c.assemble(nil); drafts != nil {
		t.Errorf("expected nil for no segments, got %d", len(drafts))
	}
}

func TestLastRunes_Multibyte(t *testing.T) {
	if got := lastRunes("héllo wörld", 4); got != "örld" {
		t.Errorf("expected örld, got %q", got)
	}
	if got := lastRunes("ab", 5); got != "ab" {
		t.Errorf("short strings returned whole, got %q", got)
	}
}
