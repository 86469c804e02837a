// Package ingest provides the ingestion coordinator: it runs documents
// through validation and the chunking engine, isolates per-document
// failures, and forwards the resulting chunks to the vector store one call
// per source group.
package ingest

import (
	"context"
	"log/slog"

	"github.com/DocPilotAI/docpilot-mvp/engine/chunker"
	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
	"github.com/DocPilotAI/docpilot-mvp/engine/semantic"
	"github.com/DocPilotAI/docpilot-mvp/pkg/fn"
	"github.com/DocPilotAI/docpilot-mvp/pkg/resilience"
)

// DefaultWorkers bounds concurrent per-document chunking in a batch.
const DefaultWorkers = 4

// Deps holds the external dependencies for the coordinator.
type Deps struct {
	Chunker *chunker.Chunker
	Store   semantic.VectorStore
	Logger  *slog.Logger
	// Workers bounds batch concurrency; DefaultWorkers when zero.
	Workers int
	// Breaker optionally guards vector store calls.
	Breaker *resilience.Breaker
	// Limiter optionally paces vector store calls.
	Limiter *resilience.Limiter
	// Retry optionally retries failed store calls.
	Retry *fn.RetryOpts
}

// Validate is the pipeline's entry gate.
var Validate fn.Stage[domain.Document, domain.Document] = func(_ context.Context, doc domain.Document) fn.Result[domain.Document] {
	if err := domain.ValidateDocument(doc); err != nil {
		return fn.Err[domain.Document](err)
	}
	return fn.Ok(domain.Normalize(doc))
}

// NewChunkStage wraps the chunking engine as a pipeline stage. The engine
// never fails for text-shape reasons; degenerate content simply yields zero
// chunks.
func NewChunkStage(c *chunker.Chunker) fn.Stage[domain.Document, []chunker.Chunk] {
	return func(_ context.Context, doc domain.Document) fn.Result[[]chunker.Chunk] {
		return fn.Ok(c.ChunkDocument(doc))
	}
}

// Coordinator drives batches of documents through the chunking engine and
// into the vector store.
type Coordinator struct {
	pipeline fn.Stage[domain.Document, []chunker.Chunk]
	store    semantic.VectorStore
	log      *slog.Logger
	workers  int
	breaker  *resilience.Breaker
	limiter  *resilience.Limiter
	retry    *fn.RetryOpts
}

// NewCoordinator wires a coordinator from its dependencies.
func NewCoordinator(deps Deps) *Coordinator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Coordinator{
		pipeline: fn.Then(
			fn.TracedStage("ingest.validate", Validate),
			fn.TracedStage("ingest.chunk", NewChunkStage(deps.Chunker)),
		),
		store:   deps.Store,
		log:     log,
		workers: workers,
		breaker: deps.Breaker,
		limiter: deps.Limiter,
		retry:   deps.Retry,
	}
}

// IngestDocument runs a single document through the pipeline and upserts
// its chunks. Zero-chunk documents are not forwarded.
func (co *Coordinator) IngestDocument(ctx context.Context, doc domain.Document) (int, error) {
	chunks, err := co.pipeline(ctx, doc).Unwrap()
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := co.addChunks(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IngestBatch processes a batch with bounded concurrency. A failing document
// is recorded and skipped; the rest of the batch proceeds. Within one
// document, chunk order (and therefore chunk_index order) is preserved.
func (co *Coordinator) IngestBatch(ctx context.Context, docs []domain.Document) Report {
	report := Report{BySource: make(map[string]int)}

	results := fn.ParMapResult(docs, co.workers, func(doc domain.Document) fn.Result[[]chunker.Chunk] {
		return co.pipeline(ctx, doc)
	})

	var all []chunker.Chunk
	for i, r := range results {
		chunks, err := r.Unwrap()
		if err != nil {
			co.log.Warn("ingest: skipping document", "doc", docs[i].ID(), "error", err)
			report.Failures = append(report.Failures, DocFailure{
				Doc:   docs[i].ID(),
				Title: docs[i].Title,
				Err:   err.Error(),
			})
			continue
		}
		if len(chunks) == 0 {
			co.log.Debug("ingest: document yielded no chunks", "doc", docs[i].ID())
			report.DocsEmpty++
			continue
		}
		report.DocsIngested++
		all = append(all, chunks...)
	}

	// One store call per logical source group. Group order is not
	// significant; within a group chunks stay in document emission order.
	for source, chunks := range fn.GroupBy(all, func(c chunker.Chunk) string { return c.Metadata.Source }) {
		if err := co.addChunks(ctx, chunks); err != nil {
			co.log.Error("ingest: store rejected source group", "source", source, "chunks", len(chunks), "error", err)
			report.StoreErrors = append(report.StoreErrors, StoreFailure{
				Source: source,
				Chunks: len(chunks),
				Err:    err.Error(),
			})
			continue
		}
		report.ChunksAdded += len(chunks)
		report.BySource[source] += len(chunks)
	}
	return report
}

// addChunks upserts chunks through the optional limiter, retry, and breaker
// guards.
func (co *Coordinator) addChunks(ctx context.Context, chunks []chunker.Chunk) error {
	texts := fn.Map(chunks, func(c chunker.Chunk) string { return c.Content })
	metas := fn.Map(chunks, func(c chunker.Chunk) map[string]any { return c.Metadata.Payload() })
	ids := fn.Map(chunks, func(c chunker.Chunk) string { return c.Metadata.ID })

	call := func(ctx context.Context) error {
		if co.breaker != nil {
			return co.breaker.Call(ctx, func(ctx context.Context) error {
				return co.store.AddDocuments(ctx, texts, metas, ids)
			})
		}
		return co.store.AddDocuments(ctx, texts, metas, ids)
	}
	if co.limiter != nil {
		inner := call
		call = func(ctx context.Context) error {
			return co.limiter.CallWait(ctx, inner)
		}
	}

	if co.retry == nil {
		return call(ctx)
	}
	_, err := fn.Retry(ctx, *co.retry, func(ctx context.Context) fn.Result[struct{}] {
		if err := call(ctx); err != nil {
			return fn.Err[struct{}](err)
		}
		return fn.Ok(struct{}{})
	}).Unwrap()
	return err
}

// Stats reports the store's current totals.
func (co *Coordinator) Stats(ctx context.Context) (semantic.CollectionStats, error) {
	return co.store.Stats(ctx)
}
