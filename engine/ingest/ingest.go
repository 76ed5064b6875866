// Package ingest implements the batch pipeline that populates the
// product index: stream source records, reject ineligible ones, fetch
// and embed images, and upsert in batches. Ingestion is best-effort:
// any per-record failure skips that record and the loop continues.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/pkg/fn"
	"github.com/vibeshop/vibe-search/pkg/img"
)

// DefaultBatchSize is the upsert batch size used when the caller passes
// a non-positive one.
const DefaultBatchSize = 20

// Deps holds the external collaborators for the ingestion pipeline.
// All of them are constructed once at startup and shared read-only.
type Deps struct {
	Embedder Embedder
	Store    Upserter
	Fetcher  Fetcher
	Logger   *slog.Logger
}

// --- Pipeline stages ---

// validateStage is the eligibility gate: no hi-res image or no price
// means the record never reaches the network.
var validateStage fn.Stage[catalog.SourceRecord, catalog.SourceRecord] = func(_ context.Context, rec catalog.SourceRecord) fn.Result[catalog.SourceRecord] {
	if err := catalog.ValidateRecord(rec); err != nil {
		return fn.Err[catalog.SourceRecord](err)
	}
	return fn.Ok(rec)
}

// newFetchStage downloads the first hi-res rendition and normalizes it
// to RGB PNG. Fetch and decode failures both skip the record.
func newFetchStage(fetcher Fetcher) fn.Stage[catalog.SourceRecord, fetched] {
	return func(ctx context.Context, rec catalog.SourceRecord) fn.Result[fetched] {
		url := catalog.ImageURL(rec)
		raw, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return fn.Err[fetched](err)
		}
		png, err := img.NormalizePNG(raw)
		if err != nil {
			return fn.Err[fetched](fmt.Errorf("ingest: decode %s: %w", url, err))
		}
		return fn.Ok(fetched{rec: rec, url: url, png: png})
	}
}

// newEmbedStage computes the embedding and builds the catalog item with
// its metadata truncation applied.
func newEmbedStage(embedder Embedder) fn.Stage[fetched, catalog.Item] {
	return func(ctx context.Context, f fetched) fn.Result[catalog.Item] {
		vec, err := embedder.EmbedImage(ctx, f.png)
		if err != nil {
			return fn.Err[catalog.Item](err)
		}
		if err := catalog.ValidateEmbedding(vec); err != nil {
			return fn.Err[catalog.Item](err)
		}
		return fn.Ok(catalog.NewItem(f.rec, f.url, vec))
	}
}

// NewItemStage composes validate, fetch, and embed into the full
// record-to-item transform.
func NewItemStage(deps Deps) fn.Stage[catalog.SourceRecord, catalog.Item] {
	stage := fn.Then(validateStage, fn.Then(newFetchStage(deps.Fetcher), newEmbedStage(deps.Embedder)))
	return fn.TracedStage("ingest.item", stage)
}

// Run consumes the source until target records have been successfully
// processed or the stream is exhausted, upserting in batches of
// batchSize and flushing the final partial batch. It returns run stats;
// the only error returned is a source or context failure — record-level
// failures are folded into Stats.Skipped.
func Run(ctx context.Context, deps Deps, source RecordSource, target, batchSize int) (Stats, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	stage := NewItemStage(deps)

	var stats Stats
	batch := make([]catalog.Item, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		stats.Batches++
		if err := deps.Store.Upsert(ctx, batch); err != nil {
			// Fatal for this batch only; the run keeps going.
			stats.LostItems += len(batch)
			log.Error("ingest: batch upsert failed", "error", err, "lost", len(batch))
		} else {
			stats.Ingested += len(batch)
			log.Info("ingest: batch saved", "size", len(batch), "total", stats.Ingested)
		}
		batch = batch[:0]
	}

	for target <= 0 || stats.Processed < target {
		rec, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			flush()
			return stats, fmt.Errorf("ingest: source: %w", err)
		}

		res := stage(ctx, rec)
		if res.IsErr() {
			_, serr := res.Unwrap()
			stats.Skipped++
			log.Debug("ingest: skipping record", "id", rec.ASIN, "error", serr)
			continue
		}

		item, _ := res.Unwrap()
		batch = append(batch, item)
		stats.Processed++
		log.Info("ingest: processed", "id", item.ID, "count", stats.Processed, "target", target)

		if len(batch) >= batchSize {
			flush()
		}
	}

	flush()
	return stats, nil
}
