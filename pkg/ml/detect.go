package ml

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RawDetection is one detector output before normalization: pixel box,
// numeric class id, and confidence. Class ids index the class list the
// caller sent with the request.
type RawDetection struct {
	Box        [4]float32 `json:"box"`
	ClassID    int        `json:"class_id"`
	Confidence float32    `json:"confidence"`
}

// DetectClient calls the model worker's open-vocabulary detector. The
// class list travels with every request; the client holds no mutable
// state, so one instance serves all requests concurrently.
type DetectClient struct {
	baseURL string
	client  *http.Client
}

// NewDetectClient creates a detector client for the worker at baseURL.
func NewDetectClient(baseURL string, timeout time.Duration) *DetectClient {
	return &DetectClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type detectReq struct {
	Image      string   `json:"image"` // base64 PNG
	Classes    []string `json:"classes"`
	Confidence float32  `json:"confidence"`
}

type detectResp struct {
	Detections []RawDetection `json:"detections"`
	Error      string         `json:"error,omitempty"`
}

// Predict runs detection over the given class list at the given
// confidence threshold, returning raw detections in the detector's
// native output order.
func (c *DetectClient) Predict(ctx context.Context, png []byte, classes []string, threshold float32) ([]RawDetection, error) {
	body, _ := json.Marshal(detectReq{
		Image:      base64.StdEncoding.EncodeToString(png),
		Classes:    classes,
		Confidence: threshold,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml: detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &InferenceError{Model: "detect", Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var out detectResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ml: detect decode: %w", err)
	}
	if out.Error != "" {
		return nil, &InferenceError{Model: "detect", Cause: fmt.Errorf("%s", out.Error)}
	}
	return out.Detections, nil
}
