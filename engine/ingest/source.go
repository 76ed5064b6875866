package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/vibeshop/vibe-search/engine/catalog"
)

// JSONLSource streams catalog source records from a JSON-lines reader
// (one product per line, as exported by the catalog dump). Malformed
// lines are skipped without raising, per the source contract.
type JSONLSource struct {
	sc     *bufio.Scanner
	logger *slog.Logger
}

// NewJSONLSource wraps r as a RecordSource.
func NewJSONLSource(r io.Reader, logger *slog.Logger) *JSONLSource {
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(r)
	// Product records with many image renditions run long.
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	return &JSONLSource{sc: sc, logger: logger}
}

// Next returns the next well-formed record, or io.EOF at stream end.
func (s *JSONLSource) Next(ctx context.Context) (catalog.SourceRecord, error) {
	for {
		select {
		case <-ctx.Done():
			return catalog.SourceRecord{}, ctx.Err()
		default:
		}

		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return catalog.SourceRecord{}, err
			}
			return catalog.SourceRecord{}, io.EOF
		}

		line := s.sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec catalog.SourceRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Debug("ingest: skipping malformed record", "error", err)
			continue
		}
		return rec, nil
	}
}
