package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
)

// ChunkID derives the stable identifier for a chunk from its document
// identity and position. Re-ingesting an unchanged document reproduces the
// same ids, which is what lets the vector store upsert instead of append.
func ChunkID(source, url string, index int) string {
	name := fmt.Sprintf("%s::%s::%d", source, url, index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Annotate attaches provenance metadata to assembled chunk contents, in
// order. Every chunk of a document carries the document's fields, its own
// position, and the total count.
func Annotate(contents []string, doc domain.Document) []Chunk {
	chunks := make([]Chunk, len(contents))
	for i, content := range contents {
		meta := metadataForDoc(doc)
		meta.ChunkIndex = i
		meta.TotalChunks = len(contents)
		meta.ID = ChunkID(doc.Source, doc.URL, i)
		chunks[i] = Chunk{Content: content, Metadata: meta}
	}
	return chunks
}

// annotateDrafts is Annotate plus the section path each chunk starts in.
func annotateDrafts(drafts []draft, doc domain.Document, outline *Outline) []Chunk {
	contents := make([]string, len(drafts))
	for i, d := range drafts {
		contents[i] = d.content
	}
	chunks := Annotate(contents, doc)
	for i := range chunks {
		chunks[i].Metadata.Section = outline.SectionAt(drafts[i].start)
	}
	return chunks
}
