package chunker

import (
	"time"

	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
)

// SegmentKind classifies the structural role of a segment.
type SegmentKind string

const (
	KindHeading   SegmentKind = "heading"
	KindParagraph SegmentKind = "paragraph"
	KindCode      SegmentKind = "code"
	KindListItem  SegmentKind = "list-item"
	KindOther     SegmentKind = "other"
)

// Segment is an atomic structural unit of document text. Text holds the exact
// source bytes of the unit including its trailing blank-line delimiters, so
// concatenating the segments of a document reproduces it byte-for-byte.
type Segment struct {
	Text  string
	Kind  SegmentKind
	Order int
	Start int // byte offset of the segment in the source document
}

// ChunkMetadata is the provenance record attached to every chunk.
type ChunkMetadata struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	DocType     string    `json:"doc_type"`
	ScrapedAt   time.Time `json:"scraped_at,omitzero"`
	Section     string    `json:"section,omitempty"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	ID          string    `json:"id"`
}

// Payload converts the metadata to the map shape the vector store contract
// takes. ScrapedAt renders as RFC 3339 or an empty string when unset.
func (m ChunkMetadata) Payload() map[string]any {
	scraped := ""
	if !m.ScrapedAt.IsZero() {
		scraped = m.ScrapedAt.UTC().Format(time.RFC3339)
	}
	p := map[string]any{
		"title":        m.Title,
		"source":       m.Source,
		"url":          m.URL,
		"doc_type":     m.DocType,
		"scraped_at":   scraped,
		"chunk_index":  m.ChunkIndex,
		"total_chunks": m.TotalChunks,
		"id":           m.ID,
	}
	if m.Section != "" {
		p["section"] = m.Section
	}
	return p
}

// Chunk is a retrieval-sized passage of a document plus its provenance.
// Chunks are never mutated after creation.
type Chunk struct {
	Content  string
	Metadata ChunkMetadata
}

// draft is an assembled chunk before metadata is attached. seedLen is the
// number of runes copied from the previous chunk as overlap; start is the
// byte offset of the first owned (non-overlap) byte in the source document.
type draft struct {
	content string
	seedLen int
	start   int
}

// metadataForDoc carries the document fields the propagator copies into
// every chunk.
func metadataForDoc(doc domain.Document) ChunkMetadata {
	return ChunkMetadata{
		Title:     doc.Title,
		Source:    doc.Source,
		URL:       doc.URL,
		DocType:   doc.DocType,
		ScrapedAt: doc.ScrapedAt,
	}
}
