// Package ml provides HTTP clients for the model worker sidecar: the
// CLIP image embedder and the object detector. Both models are loaded
// once by the worker at startup; these clients are stateless and safe
// for concurrent use.
package ml

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// InferenceError reports a model-side failure (as opposed to a transport
// or decode failure). It is surfaced to the caller and never retried
// within a request.
type InferenceError struct {
	Model string
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("ml: %s inference: %v", e.Model, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// IsInference reports whether err is an InferenceError.
func IsInference(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
