package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/DocPilotAI/docpilot-mvp/engine/domain"
	"github.com/DocPilotAI/docpilot-mvp/pkg/natsutil"
)

const (
	// IngestSubject is the NATS subject scrapers publish documents to.
	IngestSubject = "docpilot.ingest"
	// DLQSubject is the dead letter queue subject for failed documents.
	DLQSubject = "docpilot.ingest.dlq"
	// ResultSubject receives a small event per ingested document.
	ResultSubject = "docpilot.ingest.result"
	// MaxRetries before a document goes to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Doc     domain.Document `json:"doc"`
	Error   string          `json:"error"`
	Retries int             `json:"retries"`
}

// resultMessage is published after a successful ingestion.
type resultMessage struct {
	Doc    string `json:"doc"`
	Chunks int    `json:"chunks"`
}

// StartConsumer subscribes the coordinator to the ingest subject. Failed
// documents are re-published with an incremented retry count and dead-lettered
// after MaxRetries; validation failures go straight to the DLQ since retrying
// cannot fix them. The limiter, when set, paces vector store pressure.
func StartConsumer(nc *nats.Conn, co *Coordinator, limiter *rate.Limiter, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var doc domain.Document
		if err := json.Unmarshal(msg.Data, &doc); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := natsutil.Extract(msg)
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		n, err := co.IngestDocument(ctx, doc)
		if err == nil {
			log.Info("ingest: success", "doc", doc.ID(), "chunks", n)
			if perr := natsutil.Publish(ctx, nc, ResultSubject, resultMessage{Doc: doc.ID(), Chunks: n}); perr != nil {
				log.Warn("ingest: result publish failed", "error", perr)
			}
			ack(msg)
			return
		}

		retries++
		log.Error("ingest: pipeline failed", "doc", doc.ID(), "error", err, "retry", retries)

		var verr *domain.ValidationError
		permanent := errors.As(err, &verr)

		if permanent || retries >= MaxRetries {
			dlq := dlqMessage{Doc: doc, Error: err.Error(), Retries: retries}
			if perr := natsutil.Publish(ctx, nc, DLQSubject, dlq); perr != nil {
				log.Error("ingest: DLQ publish failed", "error", perr)
			}
		} else {
			retryMsg := nats.NewMsg(IngestSubject)
			retryMsg.Data = msg.Data
			retryMsg.Header = nats.Header{}
			retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if perr := nc.PublishMsg(retryMsg); perr != nil {
				log.Error("ingest: retry publish failed", "error", perr)
			}
		}
		ack(msg)
	})
}

// ack acknowledges JetStream-delivered messages; plain NATS messages have no
// reply subject and need none.
func ack(msg *nats.Msg) {
	if msg.Reply != "" {
		_ = msg.Ack()
	}
}
