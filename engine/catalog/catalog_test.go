package catalog

import (
	"errors"
	"strings"
	"testing"
)

func validRecord() SourceRecord {
	return SourceRecord{
		ASIN:     "B00TESTASIN",
		Title:    "Ceramic table lamp with linen shade",
		Price:    "49.99",
		HiRes:    []string{"https://img.example/lamp-hires.jpg"},
		Category: "lighting",
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SourceRecord)
		wantErr error
	}{
		{"valid", func(*SourceRecord) {}, nil},
		{"empty id", func(r *SourceRecord) { r.ASIN = "  " }, ErrEmptyID},
		{"no hi-res images", func(r *SourceRecord) { r.HiRes = nil }, ErrNoImage},
		{"blank hi-res entries", func(r *SourceRecord) { r.HiRes = []string{"", "  "} }, ErrNoImage},
		{"missing price", func(r *SourceRecord) { r.Price = "" }, ErrNoPrice},
		{"whitespace price", func(r *SourceRecord) { r.Price = "   " }, ErrNoPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			err := ValidateRecord(rec)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateEmbedding(t *testing.T) {
	if err := ValidateEmbedding(make([]float32, EmbeddingDims)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range []int{0, 1, 384, EmbeddingDims - 1, EmbeddingDims + 1} {
		if err := ValidateEmbedding(make([]float32, n)); !errors.Is(err, ErrBadVector) {
			t.Errorf("dims=%d: got %v, want ErrBadVector", n, err)
		}
	}
}

func TestImageURL_FirstUsableRendition(t *testing.T) {
	rec := validRecord()
	rec.HiRes = []string{"", "https://img.example/a.jpg", "https://img.example/b.jpg"}
	if got := ImageURL(rec); got != "https://img.example/a.jpg" {
		t.Errorf("ImageURL = %q", got)
	}
}

func TestNewItem_TruncatesTitle(t *testing.T) {
	rec := validRecord()
	rec.Title = strings.Repeat("a", MaxNameLen+50)
	item := NewItem(rec, "https://img.example/a.jpg", make([]float32, EmbeddingDims))

	if len(item.Meta.Name) != MaxNameLen {
		t.Errorf("name length = %d, want %d", len(item.Meta.Name), MaxNameLen)
	}
	if item.ID != rec.ASIN {
		t.Errorf("id = %q, want %q", item.ID, rec.ASIN)
	}
	if item.Meta.ImageURL != "https://img.example/a.jpg" {
		t.Errorf("image url = %q", item.Meta.ImageURL)
	}
}

func TestNewItem_ShortTitleUntouched(t *testing.T) {
	rec := validRecord()
	item := NewItem(rec, ImageURL(rec), make([]float32, EmbeddingDims))
	if item.Meta.Name != rec.Title {
		t.Errorf("name = %q, want %q", item.Meta.Name, rec.Title)
	}
}
