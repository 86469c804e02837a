package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

// ChromemStore implements VectorStore on an embedded chromem-go index.
// It needs no external services: embedding happens through the configured
// chromem embedding function, and persistence is optional.
type ChromemStore struct {
	coll      *chromem.Collection
	tallyPath string

	mu      sync.Mutex
	srcByID map[string]string
}

// NewChromem creates an embedded store. An empty path keeps the index in
// memory; otherwise it persists under path, alongside a sidecar file holding
// the per-chunk source tally so Stats keeps its breakdown across reopens.
func NewChromem(path, collection string, embed chromem.EmbeddingFunc) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("semantic: open chromem db %s: %w", path, err)
		}
	}

	coll := db.GetCollection(collection, embed)
	if coll == nil {
		coll, err = db.CreateCollection(collection, nil, embed)
		if err != nil {
			return nil, fmt.Errorf("semantic: create collection %s: %w", collection, err)
		}
	}

	s := &ChromemStore{coll: coll, srcByID: make(map[string]string)}
	if path != "" {
		s.tallyPath = filepath.Join(path, collection+".sources.json")
		if err := s.loadTally(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddDocuments implements VectorStore. chromem keys documents by id, so
// re-adding an id replaces the stored chunk.
func (s *ChromemStore) AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return fmt.Errorf("semantic: mismatched lengths: %d texts, %d metadatas, %d ids", len(texts), len(metadatas), len(ids))
	}
	if len(texts) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(texts))
	for i := range texts {
		meta := make(map[string]string, len(metadatas[i]))
		for k, v := range metadatas[i] {
			meta[k] = fmt.Sprint(v)
		}
		docs[i] = chromem.Document{
			ID:       ids[i],
			Content:  texts[i],
			Metadata: meta,
		}
	}

	if err := s.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("semantic: add %d documents: %w", len(docs), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range docs {
		if src, ok := metadatas[i]["source"].(string); ok && src != "" {
			s.srcByID[docs[i].ID] = src
		}
	}
	return s.saveTally()
}

// Stats implements VectorStore. The source breakdown is tallied at write
// time keyed by chunk id, so re-adding a chunk does not inflate its source.
// Persistent stores reload the tally on open, keeping the breakdown in step
// with the stored collection.
func (s *ChromemStore) Stats(context.Context) (CollectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := CollectionStats{
		TotalChunks: s.coll.Count(),
		Sources:     make(map[string]int),
	}
	for _, src := range s.srcByID {
		out.Sources[src]++
	}
	return out, nil
}

// loadTally restores the id-to-source map from the sidecar file. A missing
// file is a fresh index.
func (s *ChromemStore) loadTally() error {
	data, err := os.ReadFile(s.tallyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("semantic: read source tally %s: %w", s.tallyPath, err)
	}
	if err := json.Unmarshal(data, &s.srcByID); err != nil {
		return fmt.Errorf("semantic: decode source tally %s: %w", s.tallyPath, err)
	}
	return nil
}

// saveTally writes the tally atomically. Must hold mu. In-memory stores have
// no tally path and skip the write.
func (s *ChromemStore) saveTally() error {
	if s.tallyPath == "" {
		return nil
	}
	data, err := json.Marshal(s.srcByID)
	if err != nil {
		return fmt.Errorf("semantic: encode source tally: %w", err)
	}
	tmp := s.tallyPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("semantic: write source tally: %w", err)
	}
	if err := os.Rename(tmp, s.tallyPath); err != nil {
		return fmt.Errorf("semantic: replace source tally: %w", err)
	}
	return nil
}
