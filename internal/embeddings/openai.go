package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	DefaultOpenAIModel   = "text-embedding-3-small"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// OpenAIAPIKeyEnv is consulted when no api_key is configured.
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"
)

// OpenAIOptions configures an OpenAIProvider. Empty strings mean "not set".
type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	Project      string
	// Timeout in seconds; nil means DefaultTimeout.
	Timeout *float64
}

// OpenAIProvider implements the Provider interface for OpenAI-compatible embedding APIs.
type OpenAIProvider struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	project      string
	client       *http.Client
}

// NewOpenAIProvider creates a new OpenAI embedding provider. The API key falls back to
// OPENAI_API_KEY; having neither is a validation error.
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(OpenAIAPIKeyEnv)
	}

	if apiKey == "" {
		return nil, validationErrorf("OpenAI API key is required, provide `api_key` or set %s", OpenAIAPIKeyEnv)
	}

	timeout := DefaultTimeout

	if opts.Timeout != nil {
		seconds := *opts.Timeout
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
			return nil, validationErrorf("timeout must be a positive number of seconds, got %v", seconds)
		}

		timeout = time.Duration(seconds * float64(time.Second))
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	return &OpenAIProvider{
		apiKey:       apiKey,
		model:        model,
		baseURL:      trimBaseURL(baseURL),
		organization: opts.Organization,
		project:      opts.Project,
		client:       newHTTPClient(timeout),
	}, nil
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []openAIEmbedding `json:"data"`
}

type openAIEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Index     *int      `json:"index,omitempty"`
}

// Embed generates embeddings for the whole batch in a single request.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slog.Debug("embedding batch", "provider", "openai", "model", p.model, "count", len(texts))

	jsonData, err := json.Marshal(openAIEmbedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, wrapEmbeddingError(err, "failed to marshal OpenAI request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, wrapEmbeddingError(err, "failed to create OpenAI request for %s", p.baseURL)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	if p.organization != "" {
		req.Header.Set("OpenAI-Organization", p.organization)
	}

	if p.project != "" {
		req.Header.Set("OpenAI-Project", p.project)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapEmbeddingError(err, "OpenAI embedding request to %s failed", p.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = nil
		}

		return nil, embeddingErrorf("OpenAI embedding request failed with status %s: %s", statusText(resp), string(body))
	}

	var embedResp openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, wrapEmbeddingError(err, "failed to decode OpenAI response")
	}

	return orderEmbeddings(embedResp.Data, len(texts))
}

// orderEmbeddings places each item at its reported index, or at its position when the
// API omits indexes. Anything but a one-to-one mapping onto the input is an error.
func orderEmbeddings(items []openAIEmbedding, n int) ([][]float32, error) {
	if len(items) != n {
		return nil, embeddingErrorf("OpenAI returned %d embeddings for %d inputs", len(items), n)
	}

	embeddings := make([][]float32, n)
	seen := make([]bool, n)

	for i, item := range items {
		pos := i
		if item.Index != nil {
			pos = *item.Index
		}

		if pos < 0 || pos >= n || seen[pos] {
			return nil, embeddingErrorf("OpenAI returned an invalid embedding index %d for %d inputs", pos, n)
		}

		if item.Embedding == nil {
			return nil, embeddingErrorf("OpenAI returned no embedding for input %d", pos)
		}

		seen[pos] = true
		embeddings[pos] = item.Embedding
	}

	return embeddings, nil
}
