package embeddings

import (
	"strings"

	"github.com/anush008/fastembed-go"
	"github.com/samber/lo"
)

// LocalModel describes a model the local runtime can load.
type LocalModel struct {
	ID          fastembed.EmbeddingModel
	Dimensions  int
	Description string
}

// leafPrefixes are dropped from leaf aliases: the runtime's own "fast-" marker and the
// sentence-transformers "all-" family marker.
var leafPrefixes = []string{"fast-", "all-"}

// SupportedLocalModels lists the runtime's models in registry order.
func SupportedLocalModels() []LocalModel {
	return lo.Map(fastembed.ListSupportedModels(), func(info fastembed.ModelInfo, _ int) LocalModel {
		return LocalModel{ID: info.Model, Dimensions: info.Dim, Description: info.Description}
	})
}

// ResolveLocalModel maps a loosely formatted model name such as "MiniLM-L6-v2" or
// "Qdrant/all-MiniLM-L6-v2-onnx" to a canonical runtime identifier.
func ResolveLocalModel(name string) (fastembed.EmbeddingModel, error) {
	return resolveModel(name, SupportedLocalModels())
}

func resolveModel(name string, known []LocalModel) (fastembed.EmbeddingModel, error) {
	requested := normalizeModelName(name)
	if requested == "" {
		return "", validationErrorf("model name cannot be empty for the sentence-transformers provider")
	}

	for _, m := range known {
		if string(m.ID) == name {
			return m.ID, nil
		}
	}

	requestedLeaf := modelLeafAlias(requested)

	for _, m := range known {
		code := normalizeModelName(string(m.ID))
		if code == requested || modelLeafAlias(code) == requestedLeaf {
			return m.ID, nil
		}
	}

	return "", validationErrorf(
		"unsupported sentence-transformers model '%s', use a model name from fastembed "+
			"(for example: 'all-MiniLM-L6-v2', 'BAAI/bge-base-en-v1.5', or 'Qdrant/all-MiniLM-L6-v2-onnx')",
		name)
}

func normalizeModelName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// modelLeafAlias expects a normalized name.
func modelLeafAlias(code string) string {
	leaf := code
	if i := strings.LastIndex(leaf, "/"); i >= 0 {
		leaf = leaf[i+1:]
	}

	leaf = strings.TrimSuffix(leaf, "-onnx")
	for _, prefix := range leafPrefixes {
		leaf = strings.TrimPrefix(leaf, prefix)
	}

	return leaf
}
