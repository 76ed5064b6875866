// Package search implements the online retrieval pipeline: embed the
// query image, pull nearest neighbors from the index, and post-filter by
// an optional detected-object label with graceful fallback.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/pkg/fn"
	"github.com/vibeshop/vibe-search/pkg/img"
	"github.com/vibeshop/vibe-search/pkg/resilience"
)

// ErrSearchFailed wraps any decode, inference, or index failure. No
// partial results accompany it.
var ErrSearchFailed = errors.New("search failed")

// Embedder maps a normalized PNG image to its visual embedding.
type Embedder interface {
	EmbedImage(ctx context.Context, png []byte) ([]float32, error)
}

// Searcher abstracts the vector index top-k query.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, topK int) ([]catalog.Match, error)
}

// Options configures the retrieval pipeline.
type Options struct {
	// PageSize is the number of matches returned to the caller.
	PageSize int
	// CandidateK is how many neighbors to over-fetch. Label filtering
	// happens client-side after retrieval and may eliminate most
	// candidates, so this must comfortably exceed PageSize.
	CandidateK int
	// QueryTimeout bounds the index round trip.
	QueryTimeout time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:     5,
		CandidateK:   50,
		QueryTimeout: 5 * time.Second,
	}
}

// Result is the ranked page of matches for one query image.
type Result struct {
	Matches []catalog.Match `json:"matches"`
	// Filtered reports whether the label filter produced the page. False
	// when no hint was given or the fallback path was taken.
	Filtered bool `json:"filtered"`
}

// Service runs image similarity search. It is stateless across requests;
// the model handles and index client are shared read-only.
type Service struct {
	embed   Embedder
	index   Searcher
	breaker *resilience.Breaker
	opts    Options
	logger  *slog.Logger
}

// New creates a search Service.
func New(embed Embedder, index Searcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions().PageSize
	}
	if opts.CandidateK <= opts.PageSize {
		opts.CandidateK = DefaultOptions().CandidateK
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultOptions().QueryTimeout
	}
	return &Service{
		embed:   embed,
		index:   index,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		opts:    opts,
		logger:  logger,
	}
}

// Search turns a raw image into a ranked page of matching catalog items,
// optionally narrowed by a detected object label. Every failure surfaces
// as ErrSearchFailed with the underlying cause attached.
func (s *Service) Search(ctx context.Context, imageBytes []byte, labelHint string) (*Result, error) {
	png, err := img.NormalizePNG(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	embedding, err := s.embed.EmbedImage(ctx, png)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	var candidates []catalog.Match
	err = s.breaker.Call(queryCtx, func(ctx context.Context) error {
		var qerr error
		candidates, qerr = s.index.Query(ctx, embedding, s.opts.CandidateK)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	if labelHint == "" {
		return &Result{Matches: fn.Take(candidates, s.opts.PageSize)}, nil
	}

	keywords := expandKeywords(labelHint)
	filtered := fn.Filter(candidates, func(m catalog.Match) bool {
		return nameMatches(m.Meta.Name, keywords)
	})

	// A bad or overly specific hint must never turn visual matches into
	// an empty result; fall back to the unfiltered page.
	if len(filtered) == 0 {
		s.logger.Info("search: label filter empty, falling back",
			"label", labelHint, "candidates", len(candidates))
		return &Result{Matches: fn.Take(candidates, s.opts.PageSize)}, nil
	}

	return &Result{
		Matches:  fn.Take(filtered, s.opts.PageSize),
		Filtered: true,
	}, nil
}
