// Package embeddings turns batches of text into vectors through interchangeable
// providers: a sequential Ollama client, a batched OpenAI client, and an in-process
// fastembed model. Providers are built from loosely-typed configuration by NewProvider.
package embeddings

import "context"

// Provider defines the interface for embedding providers.
//
// Embed returns one vector per input text, in input order. An empty batch returns an
// empty result without contacting the backend. On failure the whole batch fails and no
// vectors are returned. Implementations are safe for concurrent use and never retain
// or modify texts.
//
// Providers holding releasable resources also implement io.Closer.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
