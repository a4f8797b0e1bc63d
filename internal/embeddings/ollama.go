package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	DefaultOllamaModel   = "mxbai-embed-large"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// OllamaProvider implements the Provider interface for Ollama.
// It issues one request per text; Ollama's legacy embeddings endpoint does not batch.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama embedding provider.
// Trailing slashes are stripped from baseURL.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: trimBaseURL(baseURL),
		model:   model,
		client:  newHTTPClient(DefaultTimeout),
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates embeddings for texts, one request at a time.
// The first failure aborts the batch.
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slog.Debug("embedding batch", "provider", "ollama", "model", p.model, "count", len(texts))

	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding, err := p.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}

		embeddings = append(embeddings, embedding)
	}

	return embeddings, nil
}

func (p *OllamaProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, wrapEmbeddingError(err, "failed to marshal Ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, wrapEmbeddingError(err, "failed to create Ollama request for %s", p.baseURL)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		switch {
		case isTimeout(err):
			return nil, wrapEmbeddingError(err, "Ollama request to %s timed out", p.baseURL)
		case errors.Is(err, context.Canceled):
			return nil, wrapEmbeddingError(err, "Ollama request to %s was cancelled", p.baseURL)
		default:
			return nil, wrapEmbeddingError(err, "cannot connect to Ollama at %s, make sure Ollama is running", p.baseURL)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, embeddingErrorf("Ollama embedding request failed with status %s", statusText(resp))
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, wrapEmbeddingError(err, "invalid response from Ollama at %s", p.baseURL)
	}

	if embedResp.Embedding == nil {
		return nil, embeddingErrorf(
			"no embedding returned from Ollama, make sure model '%s' is an embedding model", p.model)
	}

	return embedResp.Embedding, nil
}

// statusText renders "500 Internal Server Error", falling back to the bare code.
func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}

	return fmt.Sprintf("%d", resp.StatusCode)
}
