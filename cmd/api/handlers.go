package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vibeshop/vibe-search/engine/catalog"
	"github.com/vibeshop/vibe-search/engine/detect"
	"github.com/vibeshop/vibe-search/engine/search"
	"github.com/vibeshop/vibe-search/pkg/img"
)

// errorResponse is the single failure shape for both operations: one
// error code with a descriptive message, never partial results.
type errorResponse struct {
	Error string `json:"error"`
}

// searchResponse mirrors the frontend contract.
type searchResponse struct {
	Matches []catalog.Match `json:"matches"`
}

// detectResponse carries normalized detections for the UI overlay.
type detectResponse struct {
	Detections []catalog.Detection `json:"detections"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readImageUpload extracts the uploaded image from a multipart form
// under the "file" field.
func readImageUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func handleSearch(svc *search.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		data, err := readImageUpload(r)
		if err != nil {
			mFailures("search").Inc()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or unreadable file upload"})
			return
		}

		label := r.FormValue("label")

		result, err := svc.Search(r.Context(), data, label)
		if err != nil {
			mFailures("search").Inc()
			logger.Error("search failed", "err", err)
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}

		mSearches.Inc()
		mSearchDur.Since(start)
		writeJSON(w, http.StatusOK, searchResponse{Matches: result.Matches})
	}
}

func handleDetect(n *detect.Normalizer, defaultThreshold float32, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		data, err := readImageUpload(r)
		if err != nil {
			mFailures("detect").Inc()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or unreadable file upload"})
			return
		}

		threshold := defaultThreshold
		if v := r.FormValue("threshold"); v != "" {
			if f, perr := strconv.ParseFloat(v, 32); perr == nil && f > 0 && f <= 1 {
				threshold = float32(f)
			}
		}

		detections, err := n.Detect(r.Context(), data, threshold)
		if err != nil {
			mFailures("detect").Inc()
			logger.Error("detect failed", "err", err)
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}

		mDetects.Inc()
		mDetectDur.Since(start)
		if detections == nil {
			detections = []catalog.Detection{}
		}
		writeJSON(w, http.StatusOK, detectResponse{Detections: detections})
	}
}

// statusFor maps the error taxonomy onto HTTP: bad image bytes are the
// caller's fault, everything else is ours.
func statusFor(err error) int {
	if errors.Is(err, img.ErrDecode) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
