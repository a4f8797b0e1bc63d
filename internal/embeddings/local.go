package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/anush008/fastembed-go"
	"github.com/samber/lo"
)

const (
	DefaultLocalModel = "all-MiniLM-L6-v2"

	localBatchSize = 256
)

// float32Epsilon is the gap between 1 and the next float32.
var float32Epsilon = math.Nextafter32(1, 2) - 1

var (
	errLockPoisoned = errors.New("lock poisoned")
	errClosed       = errors.New("provider closed")
)

// localModel is the slice of the runtime the provider needs.
type localModel interface {
	Embed(texts []string, batchSize int) ([][]float32, error)
	Close()
}

// newLocalModel loads a runtime model. Tests replace it.
var newLocalModel = func(id fastembed.EmbeddingModel) (localModel, error) {
	opts := &fastembed.InitOptions{
		Model:    id,
		CacheDir: modelCacheDir(),
	}

	flag, err := fastembed.NewFlagEmbedding(opts)
	if err != nil {
		return nil, err
	}

	return &fastembedModel{flag: flag}, nil
}

type fastembedModel struct {
	flag *fastembed.FlagEmbedding
}

func (m *fastembedModel) Embed(texts []string, batchSize int) ([][]float32, error) {
	return m.flag.Embed(texts, batchSize)
}

func (m *fastembedModel) Close() {
	m.flag.Destroy()
}

func modelCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, "embedkit", "models")
}

// guardedModel serializes access to a model that is not safe for concurrent use.
// A panic during inference poisons the guard and every later call fails.
type guardedModel struct {
	mu       sync.Mutex
	model    localModel
	poisoned bool
}

func (g *guardedModel) embed(texts []string, batchSize int) (embeddings [][]float32, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned {
		return nil, errLockPoisoned
	}

	if g.model == nil {
		return nil, errClosed
	}

	defer func() {
		if r := recover(); r != nil {
			g.poisoned = true
			embeddings = nil
			err = fmt.Errorf("panic during inference: %v", r)
		}
	}()

	return g.model.Embed(texts, batchSize)
}

func (g *guardedModel) close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.model != nil && !g.poisoned {
		g.model.Close()
	}

	g.model = nil
}

// LocalProvider implements the Provider interface with an in-process fastembed model.
type LocalProvider struct {
	model      string
	modelID    fastembed.EmbeddingModel
	dimensions int
	normalize  bool
	guard      *guardedModel
}

// NewLocalProvider resolves model, loads it, and returns a provider around it.
func NewLocalProvider(model string, normalize bool) (*LocalProvider, error) {
	id, err := ResolveLocalModel(model)
	if err != nil {
		return nil, err
	}

	return newLocalProviderWithID(model, id, normalize)
}

func newLocalProviderWithID(model string, id fastembed.EmbeddingModel, normalize bool) (*LocalProvider, error) {
	slog.Debug("loading local embedding model", "model", model, "id", string(id))

	m, err := newLocalModel(id)
	if err != nil {
		return nil, wrapEmbeddingError(err, "failed to initialize local model '%s'", model)
	}

	info, _ := lo.Find(SupportedLocalModels(), func(m LocalModel) bool { return m.ID == id })

	return &LocalProvider{
		model:      model,
		modelID:    id,
		dimensions: info.Dimensions,
		normalize:  normalize,
		guard:      &guardedModel{model: m},
	}, nil
}

// ModelID returns the canonical runtime identifier the provider loaded.
func (p *LocalProvider) ModelID() fastembed.EmbeddingModel {
	return p.modelID
}

// Dimensions returns the length of the vectors the model produces, as listed in the
// runtime's registry.
func (p *LocalProvider) Dimensions() int {
	return p.dimensions
}

// Embed runs inference on the whole batch. Concurrent calls wait for each other.
func (p *LocalProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slog.Debug("embedding batch", "provider", "sentence-transformers", "model", p.model, "count", len(texts))

	embeddings, err := p.guard.embed(texts, localBatchSize)

	switch {
	case errors.Is(err, errLockPoisoned):
		return nil, embeddingErrorf("local model '%s' lock poisoned", p.model)
	case errors.Is(err, errClosed):
		return nil, embeddingErrorf("local model '%s' is closed", p.model)
	case err != nil:
		return nil, wrapEmbeddingError(err, "local embedding failed for model '%s'", p.model)
	}

	if len(embeddings) != len(texts) {
		return nil, embeddingErrorf("local model '%s' returned %d embeddings for %d inputs",
			p.model, len(embeddings), len(texts))
	}

	if p.normalize {
		for _, embedding := range embeddings {
			normalizeEmbedding(embedding)
		}
	}

	return embeddings, nil
}

// Close releases the runtime model.
func (p *LocalProvider) Close() error {
	p.guard.close()

	return nil
}

// normalizeEmbedding scales v to unit L2 norm in place. Vectors with a norm at or
// below float32 epsilon are left as they are.
func normalizeEmbedding(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}

	norm := float32(math.Sqrt(float64(sum)))
	if norm <= float32Epsilon {
		return
	}

	for i := range v {
		v[i] /= norm
	}
}
