// Command seed populates the product index from a catalog dump: stream
// records, fetch and embed product images, and upsert in batches. It can
// also run as a long-lived consumer draining records from NATS.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/engine/ingest"
	"github.com/vibeshop/vibe-search/engine/semantic"
	"github.com/vibeshop/vibe-search/pkg/config"
	"github.com/vibeshop/vibe-search/pkg/metrics"
	"github.com/vibeshop/vibe-search/pkg/ml"
)

var met = metrics.New()

var (
	mProcessed = met.Counter("vibe_seed_processed_total", "Records transformed into items")
	mSkipped   = met.Counter("vibe_seed_skipped_total", "Records skipped")
	mIngested  = met.Counter("vibe_seed_ingested_total", "Items upserted")
	mBatches   = met.Counter("vibe_seed_batches_total", "Upsert batches issued")
	mRunDur    = met.Histogram("vibe_seed_run_duration_seconds", "Whole-run duration", []float64{1, 10, 60, 300, 900, 3600})
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "YAML config file (defaults apply if empty)")
		input      = flag.String("input", "", "JSONL catalog dump to ingest ('-' for stdin)")
		target     = flag.Int("target", 0, "stop after this many processed records (0 = config value)")
		batchSize  = flag.Int("batch", 0, "upsert batch size (0 = config value)")
		natsMode   = flag.Bool("nats", false, "consume records from NATS instead of a file")
		metricPort = flag.Int("metrics-port", 9091, "metrics listen port")
	)
	flag.Parse()
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if *target <= 0 {
		*target = cfg.Ingest.Target
	}
	if *batchSize <= 0 {
		*batchSize = cfg.Ingest.BatchSize
	}

	met.ServeAsync(*metricPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Connect Qdrant and make sure the index exists with the fixed
	// embedding dimension and cosine metric.
	store, err := semantic.New(cfg.Index.Addr, cfg.Index.Collection)
	if err != nil {
		logger.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, catalog.EmbeddingDims); err != nil {
		logger.Error("ensure collection failed", "error", err)
		os.Exit(1)
	}
	logger.Info("index ready", "collection", cfg.Index.Collection, "dims", catalog.EmbeddingDims)

	deps := ingest.Deps{
		Embedder: ml.NewEmbedClient(cfg.Worker.URL, time.Duration(cfg.Worker.TimeoutSecs)*time.Second),
		Store:    store,
		Fetcher: ingest.NewImageFetcher(
			time.Duration(cfg.Ingest.FetchTimeoutSecs)*time.Second,
			cfg.Ingest.FetchPerSecond,
		),
		Logger: logger,
	}

	if *natsMode {
		runConsumer(ctx, cfg, deps, logger)
		return
	}

	if *input == "" {
		logger.Error("either -input or -nats is required")
		os.Exit(1)
	}

	var in *os.File
	if *input == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(*input)
		if err != nil {
			logger.Error("open input failed", "error", err)
			os.Exit(1)
		}
		defer in.Close()
	}

	start := time.Now()
	source := ingest.NewJSONLSource(in, logger)
	stats, err := ingest.Run(ctx, deps, source, *target, *batchSize)
	mRunDur.Since(start)
	mProcessed.Add(int64(stats.Processed))
	mSkipped.Add(int64(stats.Skipped))
	mIngested.Add(int64(stats.Ingested))
	mBatches.Add(int64(stats.Batches))

	if err != nil {
		logger.Error("ingestion aborted", "error", err,
			"ingested", stats.Ingested, "skipped", stats.Skipped)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"ingested", stats.Ingested,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"batches", stats.Batches,
		"lost", stats.LostItems,
	)
}

// runConsumer drains single records from NATS until interrupted.
func runConsumer(ctx context.Context, cfg config.Config, deps ingest.Deps, logger *slog.Logger) {
	url := cfg.Ingest.NATSURL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		logger.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	sub, err := ingest.StartConsumer(nc, deps)
	if err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	logger.Info("consuming catalog records", "subject", ingest.IngestSubject, "url", url)
	<-ctx.Done()
	logger.Info("shutting down")
}
