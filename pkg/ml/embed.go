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

// EmbedClient calls the model worker's image embedding endpoint.
type EmbedClient struct {
	baseURL string
	client  *http.Client
}

// NewEmbedClient creates an embedding client for the worker at baseURL.
func NewEmbedClient(baseURL string, timeout time.Duration) *EmbedClient {
	return &EmbedClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type embedReq struct {
	Image string `json:"image"` // base64 PNG
}

type embedResp struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedImage maps a normalized PNG image to its visual embedding.
func (c *EmbedClient) EmbedImage(ctx context.Context, png []byte) ([]float32, error) {
	body, _ := json.Marshal(embedReq{Image: base64.StdEncoding.EncodeToString(png)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml: embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &InferenceError{Model: "embed", Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var out embedResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ml: embed decode: %w", err)
	}
	if out.Error != "" {
		return nil, &InferenceError{Model: "embed", Cause: fmt.Errorf("%s", out.Error)}
	}
	return out.Embedding, nil
}
