package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Image hosts block default Go user agents; present as a browser.
const fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

// maxImageBytes caps a single image download.
const maxImageBytes = 20 << 20

// ImageFetcher downloads product images with a bounded per-call timeout
// and rate-limited politeness toward the image host.
type ImageFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewImageFetcher creates a fetcher. timeout bounds each request;
// perSecond paces requests against the host.
func NewImageFetcher(timeout time.Duration, perSecond float64) *ImageFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if perSecond <= 0 {
		perSecond = 10
	}
	return &ImageFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 5),
	}
}

// Fetch retrieves the image at url. Non-success responses are errors so
// the pipeline can skip the record.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", url, err)
	}
	return data, nil
}
