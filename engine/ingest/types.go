package ingest

import (
	"context"

	"github.com/vibeshop/vibe-search/engine/catalog"
)

// RecordSource is a lazy, potentially unbounded stream of catalog source
// records. Next returns io.EOF when the stream is exhausted. Sources are
// expected to skip malformed records internally rather than raise.
type RecordSource interface {
	Next(ctx context.Context) (catalog.SourceRecord, error)
}

// Upserter abstracts the vector index write path.
type Upserter interface {
	Upsert(ctx context.Context, items []catalog.Item) error
}

// Embedder maps a normalized PNG image to its visual embedding.
type Embedder interface {
	EmbedImage(ctx context.Context, png []byte) ([]float32, error)
}

// Fetcher retrieves an image over the network with a bounded timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Stats summarizes one ingestion run. Per-record failures are folded
// into Skipped; they never abort the run.
type Stats struct {
	Processed int // records successfully transformed into items
	Ingested  int // items successfully upserted
	Skipped   int // records rejected or failed at any stage
	Batches   int // upsert batches issued, including the final flush
	LostItems int // items dropped because their batch upsert failed
}

// fetched is a source record with its image downloaded and normalized.
type fetched struct {
	rec catalog.SourceRecord
	url string
	png []byte
}
