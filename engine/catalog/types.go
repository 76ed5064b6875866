// Package catalog defines the vector+metadata record shape shared by the
// ingestion and retrieval pipelines, and the validation gate applied to
// source records before they enter the index.
package catalog

// EmbeddingDims is the output dimension of the visual embedding model.
// The index is created with this dimension and every vector written or
// queried must match it.
const EmbeddingDims = 512

// MaxNameLen bounds the display title stored in item metadata.
const MaxNameLen = 100

// Meta is the metadata stored alongside each vector in the index.
type Meta struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

// Item is the canonical indexed record: a stable product id, its visual
// embedding, and display metadata. Items are created by ingestion and
// only ever replaced wholesale by re-ingestion under the same id.
type Item struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"-"`
	Meta      Meta      `json:"metadata"`
}

// SourceRecord is one record from the product source stream. The shape
// mirrors the upstream catalog dump: several image renditions per
// product, of which only the high-resolution ones are usable.
type SourceRecord struct {
	ASIN     string   `json:"parent_asin"`
	Title    string   `json:"title"`
	Price    string   `json:"price"`
	HiRes    []string `json:"hi_res_images"`
	Category string   `json:"category"`
}

// Detection is a single normalized detector output: pixel box, resolved
// label, and raw confidence. Detections are ephemeral, produced per
// request and never persisted.
type Detection struct {
	Box   [4]float32 `json:"box"`
	Label string     `json:"label"`
	Score float32    `json:"score"`
}

// Match is one retrieval hit: item id, similarity score, and metadata.
type Match struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Meta  Meta    `json:"metadata"`
}

// NewItem builds an Item from a source record and its embedding,
// applying the metadata truncation rules.
func NewItem(rec SourceRecord, imageURL string, embedding []float32) Item {
	return Item{
		ID:        rec.ASIN,
		Embedding: embedding,
		Meta: Meta{
			Name:     truncate(rec.Title, MaxNameLen),
			ImageURL: imageURL,
			Price:    rec.Price,
			Category: rec.Category,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
