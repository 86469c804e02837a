// Package chunker implements the chunking engine: structural segmentation of
// raw document text, greedy packing of segments into size-budgeted chunks
// with boundary overlap, and provenance metadata with deterministic ids.
//
// The engine is pure and synchronous: it performs no I/O, shares no state
// between invocations, and is safe to call concurrently across documents.
package chunker

import "github.com/DocPilotAI/docpilot-mvp/engine/domain"

// Chunker splits documents into retrieval-sized chunks.
type Chunker struct {
	cfg Config
}

// New creates a Chunker, failing fast on invalid configuration.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the chunker's budget.
func (c *Chunker) Config() Config { return c.cfg }

// ChunkDocument runs segmentation, assembly, and annotation for one
// document. It never fails for text-shape reasons: degenerate content
// yields zero chunks, any other non-empty content yields at least one.
func (c *Chunker) ChunkDocument(doc domain.Document) []Chunk {
	segs := SplitSegments(doc.Content)
	if len(segs) == 0 {
		return nil
	}
	drafts := c.assemble(segs)
	return annotateDrafts(drafts, doc, BuildOutline(doc.Content))
}
