package catalog

import "strings"

// ValidateRecord is the eligibility gate at ingestion entry. Records with
// no usable high-resolution image or no price are rejected; the pipeline
// skips them rather than aborting.
func ValidateRecord(rec SourceRecord) error {
	if strings.TrimSpace(rec.ASIN) == "" {
		return NewValidationError("parent_asin", rec.ASIN, ErrEmptyID)
	}
	if firstHiRes(rec) == "" {
		return NewValidationError("hi_res_images", "", ErrNoImage)
	}
	if strings.TrimSpace(rec.Price) == "" {
		return NewValidationError("price", rec.Price, ErrNoPrice)
	}
	return nil
}

// ValidateEmbedding checks the fixed index dimension.
func ValidateEmbedding(v []float32) error {
	if len(v) != EmbeddingDims {
		return NewValidationError("embedding", "", ErrBadVector)
	}
	return nil
}

// ImageURL returns the image reference ingestion should fetch: the first
// high-resolution rendition.
func ImageURL(rec SourceRecord) string {
	return firstHiRes(rec)
}

func firstHiRes(rec SourceRecord) string {
	for _, u := range rec.HiRes {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	return ""
}
