package embeddings

import (
	"log/slog"
	"strings"
)

// Canonical provider names.
const (
	ProviderOllama               = "ollama"
	ProviderOpenAI               = "openai"
	ProviderSentenceTransformers = "sentence-transformers"
)

// SupportedProviders returns the canonical provider names NewProvider accepts.
func SupportedProviders() []string {
	return []string{ProviderOllama, ProviderOpenAI, ProviderSentenceTransformers}
}

// NormalizeProviderName lowercases and trims name and turns underscores into hyphens.
// "sentence-transformer" is folded into "sentence-transformers".
func NormalizeProviderName(name string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), "_", "-")
	if normalized == "sentence-transformer" {
		return ProviderSentenceTransformers
	}

	return normalized
}

// NewProvider creates a new embedding provider from a provider name and its configuration.
//
// cfg is consumed: each recognized key is removed as it is read, and any key still
// present afterwards is rejected. Pass cfg.Clone() to keep the original.
func NewProvider(name string, cfg Config) (Provider, error) {
	if cfg == nil {
		cfg = Config{}
	}

	provider := NormalizeProviderName(name)

	switch provider {
	case ProviderOllama:
		model := cfg.TakeString("model", DefaultOllamaModel)
		baseURL := cfg.TakeString("base_url", DefaultOllamaBaseURL)

		if err := rejectRemaining(provider, cfg); err != nil {
			return nil, err
		}

		slog.Debug("creating embedding provider", "provider", provider, "model", model, "base_url", baseURL)

		return NewOllamaProvider(baseURL, model), nil

	case ProviderOpenAI:
		var opts OpenAIOptions

		opts.APIKey, _ = cfg.TakeOptionalString("api_key")
		opts.Model = cfg.TakeString("model", DefaultOpenAIModel)
		opts.BaseURL, _ = cfg.TakeOptionalString("base_url")
		opts.Organization, _ = cfg.TakeOptionalString("organization")
		opts.Project, _ = cfg.TakeOptionalString("project")

		timeout, err := cfg.TakeOptionalFloat("timeout")
		if err != nil {
			return nil, err
		}

		opts.Timeout = timeout

		if err := rejectRemaining(provider, cfg); err != nil {
			return nil, err
		}

		slog.Debug("creating embedding provider", "provider", provider, "model", opts.Model)

		p, err := NewOpenAIProvider(opts)
		if err != nil {
			return nil, err
		}

		return p, nil

	case ProviderSentenceTransformers:
		model := cfg.TakeString("model", DefaultLocalModel)

		normalize, err := cfg.TakeBool("normalize_embeddings", false)
		if err != nil {
			return nil, err
		}

		if err := rejectRemaining(provider, cfg); err != nil {
			return nil, err
		}

		slog.Debug("creating embedding provider", "provider", provider, "model", model, "normalize", normalize)

		p, err := NewLocalProvider(model, normalize)
		if err != nil {
			return nil, err
		}

		return p, nil

	default:
		return nil, validationErrorf("unsupported embedding provider '%s', supported providers: %s",
			provider, strings.Join(SupportedProviders(), ", "))
	}
}

// rejectRemaining fails when cfg still holds keys after extraction.
func rejectRemaining(provider string, cfg Config) error {
	if len(cfg) == 0 {
		return nil
	}

	return validationErrorf("unsupported embedding config keys for provider '%s': %s",
		provider, strings.Join(cfg.Keys(), ", "))
}
