package embeddings

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Ollama(t *testing.T) {
	provider, err := NewProvider("ollama", Config{
		"model":    "nomic-embed-text",
		"base_url": "http://ollama.internal:11434/",
	})
	require.NoError(t, err)

	ollama, ok := provider.(*OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "nomic-embed-text", ollama.model)
	assert.Equal(t, "http://ollama.internal:11434", ollama.baseURL)
}

func TestNewProvider_OllamaDefaults(t *testing.T) {
	provider, err := NewProvider("OLLAMA", nil)
	require.NoError(t, err)

	ollama := provider.(*OllamaProvider)
	assert.Equal(t, DefaultOllamaModel, ollama.model)
	assert.Equal(t, DefaultOllamaBaseURL, ollama.baseURL)
}

func TestNewProvider_OpenAI(t *testing.T) {
	provider, err := NewProvider("openai", Config{
		"api_key":      "sk-test",
		"model":        "text-embedding-3-large",
		"base_url":     "https://proxy.example.test/v1",
		"organization": "org-1",
		"project":      "proj-1",
		"timeout":      "12.5",
	})
	require.NoError(t, err)

	openai, ok := provider.(*OpenAIProvider)
	require.True(t, ok)
	assert.Equal(t, "sk-test", openai.apiKey)
	assert.Equal(t, "text-embedding-3-large", openai.model)
	assert.Equal(t, "org-1", openai.organization)
	assert.Equal(t, "proj-1", openai.project)
	assert.Equal(t, "12.5s", openai.client.Timeout.String())
}

func TestNewProvider_OpenAIEnvFallback(t *testing.T) {
	t.Setenv(OpenAIAPIKeyEnv, "sk-from-env")

	provider, err := NewProvider("openai", Config{})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", provider.(*OpenAIProvider).apiKey)
}

func TestNewProvider_OpenAIMissingKey(t *testing.T) {
	t.Setenv(OpenAIAPIKeyEnv, "")

	provider, err := NewProvider("openai", Config{"model": "text-embedding-3-small"})
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.True(t, IsValidation(err))
}

func TestNewProvider_OpenAIInvalidTimeout(t *testing.T) {
	for _, timeout := range []interface{}{"soon", true, 0, -3.0} {
		_, err := NewProvider("openai", Config{"api_key": "k", "timeout": timeout})
		require.Error(t, err, "timeout %v", timeout)
		assert.True(t, IsValidation(err))
	}
}

func TestNewProvider_SentenceTransformers(t *testing.T) {
	fake := &fakeLocalModel{embedFn: constantEmbedder(1)}
	useFakeLocalModel(t, fake)

	for _, name := range []string{"sentence-transformers", "sentence_transformers", "Sentence-Transformer"} {
		provider, err := NewProvider(name, Config{
			"model":                "Qdrant/all-MiniLM-L6-v2-onnx",
			"normalize_embeddings": "yes",
		})
		require.NoError(t, err, name)

		local, ok := provider.(*LocalProvider)
		require.True(t, ok)
		assert.True(t, local.normalize)
		assert.Equal(t, "fast-all-MiniLM-L6-v2", string(local.ModelID()))

		closer, ok := provider.(io.Closer)
		require.True(t, ok)
		require.NoError(t, closer.Close())
	}
}

func TestNewProvider_RejectsUnknownKeys(t *testing.T) {
	t.Setenv(OpenAIAPIKeyEnv, "sk-from-env")

	fake := &fakeLocalModel{embedFn: constantEmbedder(1)}
	loaded := useFakeLocalModel(t, fake)

	for _, name := range SupportedProviders() {
		t.Run(name, func(t *testing.T) {
			provider, err := NewProvider(name, Config{
				"model":               "all-MiniLM-L6-v2",
				"totally_unknown_key": 1,
				"another_unknown":     "x",
			})
			require.Error(t, err)
			assert.Nil(t, provider)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), "another_unknown, totally_unknown_key")
			assert.Contains(t, err.Error(), name)
		})
	}

	assert.Empty(t, *loaded, "no model is loaded when keys are rejected")
}

func TestNewProvider_Unsupported(t *testing.T) {
	provider, err := NewProvider("cohere", Config{})
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "cohere")
	assert.Contains(t, err.Error(), "ollama, openai, sentence-transformers")
}

func TestNewProvider_ConsumesConfig(t *testing.T) {
	cfg := Config{"model": "m", "base_url": "http://x"}

	_, err := NewProvider("ollama", cfg)
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestNormalizeProviderName(t *testing.T) {
	tests := map[string]string{
		"ollama":                "ollama",
		"  OpenAI ":             "openai",
		"sentence_transformers": "sentence-transformers",
		"sentence-transformer":  "sentence-transformers",
		"SENTENCE_TRANSFORMER":  "sentence-transformers",
		"something_else":        "something-else",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeProviderName(in), in)
	}
}
