package ml

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEmbedImage(t *testing.T) {
	png := []byte("fake-png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil || string(got) != string(png) {
			t.Errorf("image payload = %q (%v)", got, err)
		}
		json.NewEncoder(w).Encode(embedResp{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, time.Second)
	vec, err := c.EmbedImage(context.Background(), png)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("embedding = %v", vec)
	}
}

func TestEmbedImage_WorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResp{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, time.Second)
	_, err := c.EmbedImage(context.Background(), []byte("x"))
	if !IsInference(err) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestEmbedImage_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, time.Second)
	_, err := c.EmbedImage(context.Background(), []byte("x"))
	if !IsInference(err) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestPredict_SendsClassesAndThreshold(t *testing.T) {
	var got detectReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(detectResp{Detections: []RawDetection{
			{Box: [4]float32{1, 2, 3, 4}, ClassID: 1, Confidence: 0.8},
		}})
	}))
	defer srv.Close()

	c := NewDetectClient(srv.URL, time.Second)

	raw, err := c.Predict(context.Background(), []byte("png"), []string{"lamp", "sofa"}, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Classes) != 2 || got.Classes[1] != "sofa" {
		t.Errorf("classes = %v", got.Classes)
	}
	if got.Confidence != 0.25 {
		t.Errorf("confidence = %v", got.Confidence)
	}
	if len(raw) != 1 || raw[0].ClassID != 1 {
		t.Errorf("raw = %+v", raw)
	}
}

func TestPredict_WorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(detectResp{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := NewDetectClient(srv.URL, time.Second)
	_, err := c.Predict(context.Background(), []byte("png"), []string{"lamp"}, 0.1)
	if !IsInference(err) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}
