// Package detect runs the object detector over an image and normalizes
// its raw output into labeled pixel boxes restricted to the configured
// vocabulary.
package detect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/pkg/img"
	"github.com/vibeshop/vibe-search/pkg/ml"
)

// Detector abstracts the external object detector. The class list is
// passed with every call; implementations must be safe for concurrent
// use.
type Detector interface {
	Predict(ctx context.Context, png []byte, classes []string, threshold float32) ([]ml.RawDetection, error)
}

// Thresholds used by the two call sites. Interactive detection casts a
// wide net; FilteringThreshold is the stricter value clients pass when
// a detection's label will feed the search label filter.
const (
	InteractiveThreshold float32 = 0.1
	FilteringThreshold   float32 = 0.25
)

// Normalizer converts raw detector output into catalog.Detection values.
// The vocabulary is fixed at construction and never mutated, so one
// Normalizer serves all requests concurrently.
type Normalizer struct {
	det    Detector
	vocab  []string
	logger *slog.Logger
}

// New creates a Normalizer over the given detector and label vocabulary.
func New(det Detector, vocab []string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		det:    det,
		vocab:  append([]string(nil), vocab...),
		logger: logger,
	}
}

// Detect runs detection at the given confidence threshold. It returns an
// empty slice, not an error, when nothing clears the threshold. Boxes
// keep the detector's native output order; overlapping boxes are not
// merged beyond whatever suppression the detector itself performs.
func (n *Normalizer) Detect(ctx context.Context, imageBytes []byte, threshold float32) ([]catalog.Detection, error) {
	png, err := img.NormalizePNG(imageBytes)
	if err != nil {
		return nil, err
	}

	raw, err := n.det.Predict(ctx, png, n.vocab, threshold)
	if err != nil {
		return nil, fmt.Errorf("detect: predict: %w", err)
	}

	out := make([]catalog.Detection, 0, len(raw))
	for _, r := range raw {
		if r.Confidence < threshold {
			continue
		}
		label := n.label(r.ClassID)
		if label == "" {
			n.logger.Warn("detect: dropping unknown class", "class_id", r.ClassID)
			continue
		}
		out = append(out, catalog.Detection{
			Box:   r.Box,
			Label: label,
			Score: r.Confidence,
		})
	}
	return out, nil
}

// label resolves a class id against the vocabulary sent with the
// request, or "" if out of range.
func (n *Normalizer) label(classID int) string {
	if classID < 0 || classID >= len(n.vocab) {
		return ""
	}
	return n.vocab[classID]
}

// Vocabulary returns a copy of the configured label vocabulary.
func (n *Normalizer) Vocabulary() []string {
	return append([]string(nil), n.vocab...)
}
