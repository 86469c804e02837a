package semantic

import (
	"context"
	"hash/fnv"
	"math"
	"testing"

	"github.com/philippgille/chromem-go"
)

// testEmbedding is a deterministic stand-in for a real embedding model. It
// hashes the text into a small normalized vector so distinct texts get
// distinct embeddings without any network dependency.
func testEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		h := fnv.New32a()
		h.Write([]byte(text))
		seed := h.Sum32()

		v := make([]float32, 8)
		var norm float64
		for i := range v {
			seed = seed*1664525 + 1013904223
			v[i] = float32(seed%1000)/1000 + 0.001
			norm += float64(v[i]) * float64(v[i])
		}
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
		return v, nil
	}
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromem("", "test-chunks", testEmbedding())
	if err != nil {
		t.Fatalf("new chromem store: %v", err)
	}
	return s
}

func meta(source, id string) map[string]any {
	return map[string]any{
		"source":      source,
		"id":          id,
		"chunk_index": 0,
	}
}

func TestChromemStore_AddAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AddDocuments(ctx,
		[]string{"python chunk one", "python chunk two", "django chunk"},
		[]map[string]any{meta("python", "a"), meta("python", "b"), meta("django", "c")},
		[]string{"a", "b", "c"},
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d, want 3", stats.TotalChunks)
	}
	if stats.Sources["python"] != 2 || stats.Sources["django"] != 1 {
		t.Errorf("source breakdown wrong: %v", stats.Sources)
	}
}

func TestChromemStore_ReAddingIDsDoesNotGrow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	texts := []string{"original text a", "original text b"}
	metas := []map[string]any{meta("python", "a"), meta("python", "b")}
	ids := []string{"a", "b"}
	if err := s.AddDocuments(ctx, texts, metas, ids); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.AddDocuments(ctx, []string{"revised text a", "revised text b"}, metas, ids); err != nil {
		t.Fatalf("second add: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != 2 {
		t.Errorf("re-adding the same ids must replace, not append: %d", stats.TotalChunks)
	}
	if stats.Sources["python"] != 2 {
		t.Errorf("source tally inflated by upsert: %v", stats.Sources)
	}
}

func TestChromemStore_MismatchedLengths(t *testing.T) {
	s := newTestStore(t)
	err := s.AddDocuments(context.Background(),
		[]string{"one"},
		[]map[string]any{meta("python", "a"), meta("python", "b")},
		[]string{"a"},
	)
	if err == nil {
		t.Fatal("mismatched slice lengths must be rejected")
	}
}

func TestChromemStore_EmptyAddIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.AddDocuments(ctx, nil, nil, nil); err != nil {
		t.Fatalf("empty add: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != 0 {
		t.Errorf("expected empty collection, got %d", stats.TotalChunks)
	}
}

func TestChromemStore_PersistentReopenKeepsSourceBreakdown(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewChromem(dir, "test-chunks", testEmbedding())
	if err != nil {
		t.Fatalf("new persistent store: %v", err)
	}
	err = s.AddDocuments(ctx,
		[]string{"python chunk one", "python chunk two", "django chunk"},
		[]map[string]any{meta("python", "a"), meta("python", "b"), meta("django", "c")},
		[]string{"a", "b", "c"},
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened, err := NewChromem(dir, "test-chunks", testEmbedding())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != 3 {
		t.Errorf("TotalChunks after reopen = %d, want 3", stats.TotalChunks)
	}
	if stats.Sources["python"] != 2 || stats.Sources["django"] != 1 {
		t.Errorf("source breakdown lost on reopen: %v", stats.Sources)
	}
}
