package models

// Config represents the application configuration.
type Config struct {
	// Embeddings provider settings
	Embeddings EmbeddingsConfig `json:"embeddings" yaml:"embeddings"`

	// HTTP server settings for `embedkit serve`
	Server ServerConfig `json:"server" yaml:"server"`
}

// EmbeddingsConfig selects a provider and carries its options verbatim.
// Option keys are checked by the provider factory, not here.
type EmbeddingsConfig struct {
	Provider string                 `json:"provider"          validate:"required" yaml:"provider"` // "ollama", "openai", "sentence-transformers"
	Options  map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// ServerConfig defines the embedding HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr" validate:"omitempty,hostname_port" yaml:"addr"` // e.g. "127.0.0.1:8080"
}
