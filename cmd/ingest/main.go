// Command ingest loads scraped documentation JSON files, chunks every
// document, and upserts the chunks into the configured vector store. It
// serves Prometheus metrics and a JSON stats endpoint while running.
//
// Each argument is a JSON file holding an array of documents; the doc type
// defaults from the file name (django_docs.json -> "django") for documents
// that omit one. A missing file is skipped with a warning, and a bad
// document never aborts the rest of its file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/schollz/progressbar/v3"

	"github.com/DocPilotAI/docpilot-mvp/engine/chunker"
	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
	"github.com/DocPilotAI/docpilot-mvp/engine/ingest"
	"github.com/DocPilotAI/docpilot-mvp/engine/semantic"
	"github.com/DocPilotAI/docpilot-mvp/pkg/config"
	"github.com/DocPilotAI/docpilot-mvp/pkg/fn"
	"github.com/DocPilotAI/docpilot-mvp/pkg/metrics"
	"github.com/DocPilotAI/docpilot-mvp/pkg/mid"
	"github.com/DocPilotAI/docpilot-mvp/pkg/ollama"
	"github.com/DocPilotAI/docpilot-mvp/pkg/resilience"
)

var met = metrics.New()

var (
	mChunksBySource = func(source string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("docpilot_ingest_chunks_by_source_total", "source", source), "Chunks upserted per source")
	}
	mDocsTotal   = met.Counter("docpilot_ingest_docs_total", "Documents ingested")
	mDocsFailed  = met.Counter("docpilot_ingest_docs_failed_total", "Documents skipped on validation or chunking failure")
	mDocsEmpty   = met.Counter("docpilot_ingest_docs_empty_total", "Documents that yielded zero chunks")
	mChunksTotal = met.Counter("docpilot_ingest_chunks_total", "Chunks upserted")
	mStoreErrors = met.Counter("docpilot_ingest_store_errors_total", "Failed vector store calls")
	mFilesLoaded = met.Counter("docpilot_ingest_files_total", "Scraped files processed")
	mBatchDur    = met.Histogram("docpilot_ingest_batch_duration_seconds", "Per-file batch time", nil)
)

func main() {
	var (
		storeFlag = flag.String("store", "", "vector store override: qdrant or chromem")
		quiet     = flag.Bool("quiet", false, "disable the progress bar")
	)
	flag.Parse()

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if *storeFlag != "" {
		cfg.Store = *storeFlag
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] scraped1.json [scraped2.json ...]")
		os.Exit(2)
	}

	chk, err := chunker.New(chunker.Config{MaxChars: cfg.MaxChars, OverlapChars: cfg.OverlapChars})
	if err != nil {
		log.Error("bad chunking config", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("vector store init failed", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	log.Info("vector store ready", "store", cfg.Store, "collection", cfg.Collection)

	retry := fn.DefaultRetry
	co := ingest.NewCoordinator(ingest.Deps{
		Chunker: chk,
		Store:   store,
		Logger:  log,
		Workers: cfg.Workers,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Limiter: resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.StoreRate, Burst: 2}),
		Retry:   &retry,
	})

	met.CollectRuntime("docpilot_ingest", 15*time.Second)
	met.ServeAsync(cfg.MetricsPort)
	go serveStats(cfg.HTTPAddr, co, log)

	var totals ingest.Report
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		report, err := ingestFile(ctx, co, path, *quiet, log)
		if err != nil {
			log.Warn("skipping file", "file", path, "error", err)
			continue
		}
		mFilesLoaded.Inc()
		totals.Merge(report)
	}

	recordReport(totals)

	log.Info("ingestion complete",
		"docs", totals.DocsIngested,
		"chunks_added", totals.ChunksAdded,
		"failed_docs", len(totals.Failures),
		"empty_docs", totals.DocsEmpty,
	)

	stats, err := co.Stats(ctx)
	if err != nil {
		log.Warn("stats unavailable", "error", err)
		return
	}
	log.Info("collection stats", "total_chunks", stats.TotalChunks, "sources", len(stats.Sources))

	names := make([]string, 0, len(stats.Sources))
	for src := range stats.Sources {
		names = append(names, src)
	}
	sort.Strings(names)
	for _, src := range names {
		log.Info("source breakdown", "source", strings.ToUpper(src), "chunks", stats.Sources[src])
	}
}

// recordReport folds a run's totals into the counters. BySource counts chunks
// per source, not documents, so it feeds the chunks-by-source series.
func recordReport(totals ingest.Report) {
	mDocsTotal.Add(int64(totals.DocsIngested))
	mDocsFailed.Add(int64(len(totals.Failures)))
	mDocsEmpty.Add(int64(totals.DocsEmpty))
	mStoreErrors.Add(int64(len(totals.StoreErrors)))
	mChunksTotal.Add(int64(totals.ChunksAdded))
	for src, n := range totals.BySource {
		mChunksBySource(src).Add(int64(n))
	}
}

// ingestFile loads one scraped JSON file and runs its documents as a batch.
func ingestFile(ctx context.Context, co *ingest.Coordinator, path string, quiet bool, log *slog.Logger) (ingest.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.Report{}, err
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return ingest.Report{}, fmt.Errorf("decode %s: %w", path, err)
	}

	fallback := docTypeFromFile(path)
	for i := range docs {
		if docs[i].DocType == "" {
			docs[i].DocType = fallback
		}
	}

	log.Info("processing file", "file", filepath.Base(path), "docs", len(docs))

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.Default(int64(len(docs)), filepath.Base(path))
	}

	start := time.Now()
	var report ingest.Report
	// Batch per file keeps one store call per source within the file while
	// the bar still moves; document order inside a batch is preserved.
	const batch = 50
	for _, part := range fn.Chunk(docs, batch) {
		if ctx.Err() != nil {
			break
		}
		report.Merge(co.IngestBatch(ctx, part))
		if bar != nil {
			_ = bar.Add(len(part))
		}
	}
	mBatchDur.Since(start)

	if bar != nil {
		_ = bar.Finish()
	}
	log.Info("file done",
		"file", filepath.Base(path),
		"ingested", report.DocsIngested,
		"chunks", report.ChunksAdded,
		"failures", len(report.Failures),
	)
	return report, nil
}

// docTypeFromFile derives a doc type from names like django_docs.json.
func docTypeFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.TrimSuffix(base, "_docs")
	if base == "" {
		return domain.DocTypeGeneral
	}
	return strings.ToLower(base)
}

// buildStore constructs the configured VectorStore implementation.
func buildStore(ctx context.Context, cfg config.Config) (semantic.VectorStore, func(), error) {
	switch cfg.Store {
	case "qdrant":
		embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.OllamaModel)
		qs, err := semantic.NewQdrant(cfg.QdrantAddr, cfg.Collection, embedder)
		if err != nil {
			return nil, nil, err
		}
		if err := qs.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
			qs.Close()
			return nil, nil, err
		}
		return qs, func() { qs.Close() }, nil
	case "chromem":
		embed := chromem.NewEmbeddingFuncOllama(cfg.OllamaModel, cfg.OllamaURL+"/api")
		cs, err := semantic.NewChromem(cfg.ChromemPath, cfg.Collection, embed)
		if err != nil {
			return nil, nil, err
		}
		return cs, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store %q", cfg.Store)
	}
}

// serveStats exposes the collection stats as JSON, wrapped in the standard
// middleware chain.
func serveStats(addr string, co *ingest.Coordinator, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := co.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	})

	handler := mid.Chain(mux, mid.OTel("docpilot-ingest"), mid.Logger(log), mid.Recover(log))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Warn("stats server stopped", "error", err)
	}
}
