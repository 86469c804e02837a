// Package semantic defines the vector store collaborator contract the
// ingestion pipeline feeds, plus the Qdrant-backed and embedded
// implementations of it.
package semantic

import "context"

// VectorStore is the capability set the ingestion coordinator needs from an
// index. AddDocuments is an upsert: re-adding an existing id overwrites the
// stored chunk rather than duplicating it, which is what makes re-ingestion
// of unchanged documents idempotent.
type VectorStore interface {
	// AddDocuments stores texts with index-aligned metadata and ids.
	// All three slices must have equal length.
	AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error
	// Stats reports the current size and per-source breakdown of the index.
	Stats(ctx context.Context) (CollectionStats, error)
}

// CollectionStats summarizes an index.
type CollectionStats struct {
	TotalChunks int            `json:"total_chunks"`
	Sources     map[string]int `json:"sources"`
}

// Embedder turns texts into vectors. The networked store implementations
// embed on write because the AddDocuments contract carries raw text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
