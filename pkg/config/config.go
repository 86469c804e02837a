// Package config loads ingestion settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the ingestion commands need. Read-only after Load.
type Config struct {
	// Chunking budget (runes).
	MaxChars     int `env:"CHUNK_MAX_CHARS" envDefault:"1000"`
	OverlapChars int `env:"CHUNK_OVERLAP_CHARS" envDefault:"200"`

	// Vector store selection: "qdrant" (networked) or "chromem" (embedded).
	Store       string `env:"VECTOR_STORE" envDefault:"qdrant"`
	QdrantAddr  string `env:"QDRANT_ADDR" envDefault:"localhost:6334"`
	Collection  string `env:"COLLECTION" envDefault:"docpilot"`
	ChromemPath string `env:"CHROMEM_PATH"`

	// Embedding backend for the qdrant store.
	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	EmbedDims   int    `env:"EMBED_DIMS" envDefault:"768"`

	// Batch processing.
	Workers int `env:"INGEST_WORKERS" envDefault:"4"`

	// Worker transport.
	NATSURL   string  `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	StoreRate float64 `env:"STORE_RATE" envDefault:"5"` // documents per second

	// Observability.
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8091"`
}

// Load reads the environment (and a .env file when present) into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
