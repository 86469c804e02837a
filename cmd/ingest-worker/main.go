// Command ingest-worker consumes scraped documents from NATS and feeds them
// through the chunking pipeline into the vector store. Documents that keep
// failing end up on the dead letter queue subject.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"

	"github.com/DocPilotAI/docpilot-mvp/engine/chunker"
	"github.com/DocPilotAI/docpilot-mvp/engine/ingest"
	"github.com/DocPilotAI/docpilot-mvp/engine/semantic"
	"github.com/DocPilotAI/docpilot-mvp/pkg/config"
	"github.com/DocPilotAI/docpilot-mvp/pkg/fn"
	"github.com/DocPilotAI/docpilot-mvp/pkg/metrics"
	"github.com/DocPilotAI/docpilot-mvp/pkg/ollama"
	"github.com/DocPilotAI/docpilot-mvp/pkg/resilience"
)

var met = metrics.New()

func main() {
	storeFlag := flag.String("store", "", "vector store override: qdrant or chromem")
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

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("docpilot-ingest-worker"))
	if err != nil {
		log.Error("nats connect failed", "url", cfg.NATSURL, "error", err)
		os.Exit(1)
	}
	defer nc.Drain()
	log.Info("connected to NATS", "url", cfg.NATSURL)

	retry := fn.DefaultRetry
	co := ingest.NewCoordinator(ingest.Deps{
		Chunker: chk,
		Store:   store,
		Logger:  log,
		Workers: cfg.Workers,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Retry:   &retry,
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.StoreRate), cfg.Workers)
	sub, err := ingest.StartConsumer(nc, co, limiter, log)
	if err != nil {
		log.Error("subscribe failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	met.CollectRuntime("docpilot_worker", 15*time.Second)
	met.ServeAsync(cfg.MetricsPort)

	log.Info("worker ready", "subject", ingest.IngestSubject, "store", cfg.Store)
	<-ctx.Done()
	log.Info("shutting down")
}

// buildStore constructs the configured VectorStore implementation.
func buildStore(ctx context.Context, cfg config.Config) (semantic.VectorStore, func(), error) {
	switch cfg.Store {
	case "chromem":
		embed := chromem.NewEmbeddingFuncOllama(cfg.OllamaModel, cfg.OllamaURL+"/api")
		cs, err := semantic.NewChromem(cfg.ChromemPath, cfg.Collection, embed)
		if err != nil {
			return nil, nil, err
		}
		return cs, func() {}, nil
	default:
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
	}
}
