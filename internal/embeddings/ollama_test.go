package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("expected path /api/embeddings, got %s", r.URL.Path)
		}

		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", req.Model)
		}

		if req.Prompt != "test text" {
			t.Errorf("expected prompt 'test text', got %s", req.Prompt)
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	embeddings, err := provider.Embed(context.Background(), []string{"test text"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(embeddings) != 1 {
		t.Fatalf("expected 1 embedding, got %d", len(embeddings))
	}

	expected := []float32{0.1, 0.2, 0.3}
	for i, v := range expected {
		if embeddings[0][i] != v {
			t.Errorf("expected embedding[%d] = %f, got %f", i, v, embeddings[0][i])
		}
	}
}

func TestOllamaProvider_Embed_PreservesOrder(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		index, err := strconv.Atoi(strings.TrimPrefix(req.Prompt, "text-"))
		if err != nil {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(index)}})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")
	texts := []string{"text-0", "text-1", "text-2", "text-3", "text-4"}

	embeddings, err := provider.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}

	for i, embedding := range embeddings {
		if embedding[0] != float32(i) {
			t.Errorf("embedding %d is tagged %v", i, embedding[0])
		}
	}

	if calls.Load() != int32(len(texts)) {
		t.Errorf("expected %d API calls, got %d", len(texts), calls.Load())
	}
}

func TestOllamaProvider_Embed_EmptyBatch(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	embeddings, err := provider.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if embeddings == nil || len(embeddings) != 0 {
		t.Errorf("expected empty, non-nil result, got %v", embeddings)
	}

	if calls.Load() != 0 {
		t.Errorf("expected no API calls, got %d", calls.Load())
	}
}

func TestOllamaProvider_Embed_FailureAbortsBatch(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal server error"))

			return
		}

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{1, 2, 3}})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	embeddings, err := provider.Embed(context.Background(), []string{"one", "two", "three"})
	if err == nil {
		t.Fatal("expected error for server error response")
	}

	if embeddings != nil {
		t.Errorf("expected no partial result, got %d embeddings", len(embeddings))
	}

	if !IsEmbedding(err) {
		t.Errorf("expected an embedding error, got %v", err)
	}

	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status in error, got %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("expected the batch to stop after 2 calls, got %d", calls.Load())
	}
}

func TestOllamaProvider_Embed_NullEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding": null}`))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")

	_, err := provider.Embed(context.Background(), []string{"test text"})
	if err == nil {
		t.Fatal("expected error for null embedding")
	}

	if !IsEmbedding(err) || !strings.Contains(err.Error(), "embedding model") {
		t.Errorf("expected an embedding-model hint, got %v", err)
	}
}

func TestOllamaProvider_Embed_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	_, err := provider.Embed(context.Background(), []string{"test text"})
	if !IsEmbedding(err) {
		t.Fatalf("expected an embedding error, got %v", err)
	}
}

func TestOllamaProvider_Embed_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	provider := NewOllamaProvider(baseURL, "test-model")

	_, err := provider.Embed(context.Background(), []string{"test text"})
	if err == nil {
		t.Fatal("expected error when Ollama is unreachable")
	}

	if !strings.Contains(err.Error(), baseURL) || !strings.Contains(err.Error(), "make sure Ollama is running") {
		t.Errorf("expected base URL and hint in error, got %v", err)
	}
}

// slowServer holds every request until the client gives up or the test ends.
func slowServer(t *testing.T) *httptest.Server {
	t.Helper()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))

	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	return server
}

func TestOllamaProvider_Embed_Timeout(t *testing.T) {
	server := slowServer(t)

	provider := NewOllamaProvider(server.URL, "test-model")
	provider.client = newHTTPClient(50 * time.Millisecond)

	_, err := provider.Embed(context.Background(), []string{"test text"})
	if err == nil {
		t.Fatal("expected error when Ollama does not answer in time")
	}

	if !IsEmbedding(err) {
		t.Errorf("expected embedding error, got %v", err)
	}

	if !strings.Contains(err.Error(), "timed out") || !strings.Contains(err.Error(), server.URL) {
		t.Errorf("expected timeout message naming %s, got %v", server.URL, err)
	}

	if strings.Contains(err.Error(), "make sure Ollama is running") {
		t.Errorf("timeout reported as a connection failure: %v", err)
	}
}

func TestOllamaProvider_Embed_Cancelled(t *testing.T) {
	server := slowServer(t)

	provider := NewOllamaProvider(server.URL, "test-model")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := provider.Embed(ctx, []string{"test text"})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}

	if !strings.Contains(err.Error(), "cancelled") || !strings.Contains(err.Error(), server.URL) {
		t.Errorf("expected cancellation message naming %s, got %v", server.URL, err)
	}

	if strings.Contains(err.Error(), "make sure Ollama is running") {
		t.Errorf("cancellation reported as a connection failure: %v", err)
	}
}

func TestNewOllamaProvider_TrimsTrailingSlash(t *testing.T) {
	provider := NewOllamaProvider("http://localhost:11434///", "test-model")
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("expected trimmed base URL, got %s", provider.baseURL)
	}
}
