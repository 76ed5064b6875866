package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/pkg/natsutil"
)

const (
	// IngestSubject carries single catalog records for online ingestion.
	IngestSubject = "catalog.ingest"
	// DLQSubject receives records that exhausted their retries.
	DLQSubject = "catalog.ingest.dlq"
	// MaxRetries before a record is sent to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Record  catalog.SourceRecord `json:"record"`
	Error   string               `json:"error"`
	Retries int                  `json:"retries"`
}

// StartConsumer subscribes to IngestSubject and runs each published
// record through the full transform, upserting items one at a time.
// Failed records are re-published with an incremented retry count and
// land on the DLQ after MaxRetries. This is the online counterpart to
// the batch Run; both share the same transform and upsert semantics.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	stage := NewItemStage(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var rec catalog.SourceRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := context.Background()

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		var pipeErr error
		result := stage(ctx, rec)
		if result.IsOk() {
			item, _ := result.Unwrap()
			err := deps.Store.Upsert(ctx, []catalog.Item{item})
			if err == nil {
				log.Info("ingest: consumed", "id", item.ID)
				return
			}
			pipeErr = fmt.Errorf("upsert: %w", err)
		} else {
			_, pipeErr = result.Unwrap()
		}

		retries++
		log.Error("ingest: record failed", "id", rec.ASIN, "error", pipeErr, "retry", retries)

		if retries >= MaxRetries {
			dlq := dlqMessage{Record: rec, Error: pipeErr.Error(), Retries: retries}
			if err := natsutil.Publish(ctx, nc, DLQSubject, dlq); err != nil {
				log.Error("ingest: DLQ publish failed", "error", err)
			}
			return
		}

		retryMsg := nats.NewMsg(IngestSubject)
		retryMsg.Data = msg.Data
		retryMsg.Header = nats.Header{}
		retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
		if err := nc.PublishMsg(retryMsg); err != nil {
			log.Error("ingest: retry publish failed", "error", err)
		}
	})
}
