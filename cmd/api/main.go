// Command api serves the visual search HTTP API: search-by-image with
// optional label narrowing, and object detection for the interactive UI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/vibeshop/vibe-search/engine/detect"
	"github.com/vibeshop/vibe-search/engine/search"
	"github.com/vibeshop/vibe-search/engine/semantic"
	"github.com/vibeshop/vibe-search/pkg/config"
	"github.com/vibeshop/vibe-search/pkg/metrics"
	"github.com/vibeshop/vibe-search/pkg/mid"
	"github.com/vibeshop/vibe-search/pkg/ml"
)

const maxUploadBytes = 16 << 20

var met = metrics.New()

var (
	mSearches = met.Counter("vibe_api_searches_total", "Search requests served")
	mDetects  = met.Counter("vibe_api_detections_total", "Detect requests served")
	mFailures = func(op string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("vibe_api_failures_total", "op", op), "Failed requests")
	}
	mSearchDur = met.Histogram("vibe_api_search_duration_seconds", "Search latency", nil)
	mDetectDur = met.Histogram("vibe_api_detect_duration_seconds", "Detect latency", nil)
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(envOr("VIBE_CONFIG", ""))
	if err != nil {
		return err
	}
	port := envOr("PORT", "8000")
	corsOrigin := envOr("CORS_ORIGIN", "*")
	if addr := os.Getenv("QDRANT_ADDR"); addr != "" {
		cfg.Index.Addr = addr
	}
	if url := os.Getenv("ML_WORKER_URL"); url != "" {
		cfg.Worker.URL = url
	}

	// --- Vector index ---
	store, err := semantic.New(cfg.Index.Addr, cfg.Index.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	// --- Model worker clients: loaded once, shared across requests ---
	workerTimeout := time.Duration(cfg.Worker.TimeoutSecs) * time.Second
	embedder := ml.NewEmbedClient(cfg.Worker.URL, workerTimeout)
	detector := ml.NewDetectClient(cfg.Worker.URL, workerTimeout)

	searchSvc := search.New(embedder, store, search.Options{
		PageSize:   cfg.Search.PageSize,
		CandidateK: cfg.Search.CandidateK,
	}, logger)
	normalizer := detect.New(detector, cfg.Vocabulary, logger)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Get("/api/health", handleHealth)
	r.Post("/api/search", handleSearch(searchSvc, logger))
	r.Post("/api/detect", handleDetect(normalizer, cfg.Detect.InteractiveThreshold, logger))
	r.Handle("/metrics", met.Handler())

	handler := mid.Chain(r,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("vibe-api"),
		mid.MaxBytes(maxUploadBytes),
	)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", port, "collection", cfg.Index.Collection)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
