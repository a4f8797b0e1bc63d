package embeddings

import (
	"testing"

	"github.com/anush008/fastembed-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModels = []LocalModel{
	{ID: "fast-all-MiniLM-L6-v2", Dimensions: 384},
	{ID: "fast-bge-base-en", Dimensions: 768},
	{ID: "fast-bge-base-en-v1.5", Dimensions: 768},
	{ID: "fast-bge-small-en-v1.5", Dimensions: 384},
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name string
		want fastembed.EmbeddingModel
	}{
		{"fast-all-MiniLM-L6-v2", "fast-all-MiniLM-L6-v2"},
		{"all-MiniLM-L6-v2", "fast-all-MiniLM-L6-v2"},
		{"MiniLM-L6-v2", "fast-all-MiniLM-L6-v2"},
		{"sentence-transformers/all-MiniLM-L6-v2", "fast-all-MiniLM-L6-v2"},
		{"Qdrant/all-MiniLM-L6-v2-onnx", "fast-all-MiniLM-L6-v2"},
		{"  ALL_MINILM_L6_V2  ", "fast-all-MiniLM-L6-v2"},
		{"BAAI/bge-base-en-v1.5", "fast-bge-base-en-v1.5"},
		{"bge-base-en", "fast-bge-base-en"},
		{"FAST-BGE-SMALL-EN-V1.5", "fast-bge-small-en-v1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveModel(tt.name, testModels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveModel_Errors(t *testing.T) {
	for _, name := range []string{"", "   ", "not-a-real-model", "BAAI/bge-large-en"} {
		t.Run(name, func(t *testing.T) {
			_, err := resolveModel(name, testModels)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	_, err := resolveModel("nope", testModels)
	assert.Contains(t, err.Error(), "'nope'")
	assert.Contains(t, err.Error(), "all-MiniLM-L6-v2")
}

func TestModelLeafAlias(t *testing.T) {
	assert.Equal(t, "minilm-l6-v2", modelLeafAlias("qdrant/all-minilm-l6-v2-onnx"))
	assert.Equal(t, "minilm-l6-v2", modelLeafAlias("fast-all-minilm-l6-v2"))
	assert.Equal(t, "bge-small-en", modelLeafAlias("baai/bge-small-en"))
}

func TestResolveLocalModel_Registry(t *testing.T) {
	models := SupportedLocalModels()
	require.NotEmpty(t, models)

	for _, m := range models {
		got, err := ResolveLocalModel(string(m.ID))
		require.NoError(t, err)
		assert.Equal(t, m.ID, got)
	}

	got, err := ResolveLocalModel("all-MiniLM-L6-v2")
	require.NoError(t, err)
	assert.Equal(t, fastembed.AllMiniLML6V2, got)
}
