package chunker

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
)

const sampleDoc = `# HTTP Clients

The requests package makes HTTP calls simple. Install it first.

` + "```python\nimport requests\n\nr = requests.get(\"https://example.com\")\nprint(r.status_code)\n```" + `

## Sessions

Sessions persist cookies across calls. Use them when you talk to the
same host repeatedly.

- keep-alive comes for free
- cookies persist
- connection pooling

That is all you need for most scripts.
`

func testDoc(content string) domain.Document {
	return domain.Document{
		Content:   content,
		Title:     "HTTP Clients",
		Source:    "python",
		URL:       "https://docs.example.com/http",
		DocType:   "library",
		ScrapedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

// stripSeed drops the overlap prefix a draft copied from its predecessor.
func stripSeed(d draft) string {
	if d.seedLen == 0 {
		return d.content
	}
	return string([]rune(d.content)[d.seedLen:])
}

func TestChunkDocument_Reconstruction(t *testing.T) {
	contents := []string{
		sampleDoc,
		"just one short paragraph",
		"# Intro\n\nHello world. " + strings.Repeat("word ", 500),
		"para one\n\n\npara two\n\n```\ncode   with   spaces\n```\n",
	}
	for _, cfg := range []Config{{MaxChars: 50, OverlapChars: 10}, DefaultConfig()} {
		c := mustChunker(t, cfg.MaxChars, cfg.OverlapChars)
		for _, content := range contents {
			var b strings.Builder
			for _, d := range c.assemble(SplitSegments(content)) {
				b.WriteString(stripSeed(d))
			}
			if b.String() != content {
				t.Errorf("cfg %+v: chunks do not reconstruct source (len %d vs %d)",
					cfg, b.Len(), len(content))
			}
		}
	}
}

func TestChunkDocument_DeterministicIDs(t *testing.T) {
	c := mustChunker(t, 120, 20)
	doc := testDoc(sampleDoc)

	first := c.ChunkDocument(doc)
	second := c.ChunkDocument(doc)
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("runs disagree on chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Metadata.ID != second[i].Metadata.ID {
			t.Errorf("chunk %d id changed between runs", i)
		}
		if want := ChunkID(doc.Source, doc.URL, i); first[i].Metadata.ID != want {
			t.Errorf("chunk %d id %q, want %q", i, first[i].Metadata.ID, want)
		}
	}
}

func TestChunkID_DistinctPerPosition(t *testing.T) {
	a := ChunkID("python", "u1", 0)
	if a != ChunkID("python", "u1", 0) {
		t.Error("same inputs must give the same id")
	}
	for _, other := range []string{
		ChunkID("python", "u1", 1),
		ChunkID("python", "u2", 0),
		ChunkID("django", "u1", 0),
	} {
		if other == a {
			t.Error("different inputs must give different ids")
		}
	}
}

func TestChunkDocument_MetadataPropagation(t *testing.T) {
	c := mustChunker(t, 120, 20)
	doc := testDoc(sampleDoc)
	chunks := c.ChunkDocument(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		m := ch.Metadata
		if m.Title != doc.Title || m.Source != doc.Source || m.URL != doc.URL || m.DocType != doc.DocType {
			t.Errorf("chunk %d lost document fields: %+v", i, m)
		}
		if m.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, m.ChunkIndex)
		}
		if m.TotalChunks != len(chunks) {
			t.Errorf("chunk %d total %d, want %d", i, m.TotalChunks, len(chunks))
		}
	}
}

func TestChunkDocument_SectionPaths(t *testing.T) {
	c := mustChunker(t, 120, 0)
	chunks := c.ChunkDocument(testDoc(sampleDoc))

	var sections []string
	for _, ch := range chunks {
		sections = append(sections, ch.Metadata.Section)
	}
	if sections[0] != "HTTP Clients" {
		t.Errorf("first chunk section %q, want top heading", sections[0])
	}
	found := false
	for _, s := range sections {
		if s == "HTTP Clients > Sessions" {
			found = true
		}
	}
	if !found {
		t.Errorf("no chunk carries the nested section path, got %v", sections)
	}
}

func TestChunkDocument_LongDocument(t *testing.T) {
	c := mustChunker(t, 200, 20)
	doc := testDoc("# Intro\n\nHello world. " + strings.Repeat("word ", 500))

	chunks := c.ChunkDocument(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Content, "# Intro") {
		t.Errorf("first chunk should open with the heading, got %q", chunks[0].Content)
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > 200 {
			t.Errorf("chunk %d has %d runes, budget is 200", i, n)
		}
		if ch.Metadata.ChunkIndex != i {
			t.Errorf("chunk indexes not strictly increasing at %d", i)
		}
	}

	again := c.ChunkDocument(doc)
	for i := range chunks {
		if chunks[i].Metadata.ID != again[i].Metadata.ID {
			t.Fatalf("chunk %d id not stable across runs", i)
		}
	}
}

func TestChunkDocument_Degenerate(t *testing.T) {
	c := mustChunker(t, 100, 10)
	for _, content := range []string{"", "   ", " \n\t\n  "} {
		if chunks := c.ChunkDocument(testDoc(content)); len(chunks) != 0 {
			t.Errorf("content %q should yield zero chunks, got %d", content, len(chunks))
		}
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero max", Config{MaxChars: 0, OverlapChars: 0}},
		{"negative max", Config{MaxChars: -5, OverlapChars: 0}},
		{"negative overlap", Config{MaxChars: 100, OverlapChars: -1}},
		{"overlap equals max", Config{MaxChars: 100, OverlapChars: 100}},
		{"overlap over max", Config{MaxChars: 100, OverlapChars: 150}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestChunkMetadata_Payload(t *testing.T) {
	m := ChunkMetadata{
		Title:       "T",
		Source:      "python",
		URL:         "u",
		DocType:     "library",
		ScrapedAt:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Section:     "HTTP Clients",
		ChunkIndex:  1,
		TotalChunks: 3,
		ID:          "abc",
	}
	p := m.Payload()
	if p["scraped_at"] != "2026-03-14T09:00:00Z" {
		t.Errorf("scraped_at rendered as %v", p["scraped_at"])
	}
	if p["chunk_index"] != 1 || p["total_chunks"] != 3 {
		t.Errorf("position fields wrong: %v", p)
	}
	if p["section"] != "HTTP Clients" {
		t.Errorf("section missing: %v", p)
	}

	m.ScrapedAt = time.Time{}
	m.Section = ""
	p = m.Payload()
	if p["scraped_at"] != "" {
		t.Errorf("unset scraped_at should render empty, got %v", p["scraped_at"])
	}
	if _, ok := p["section"]; ok {
		t.Error("empty section must be omitted from payload")
	}
}
