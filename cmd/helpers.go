package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"embedkit/internal/config"
	"embedkit/internal/embeddings"
	"embedkit/pkg/models"

	"gopkg.in/yaml.v3"
)

// loadAppConfig loads --config when given, otherwise searches the standard paths.
// A missing config file falls back to the defaults.
func loadAppConfig() (*models.Config, error) {
	if configFile != "" {
		return config.LoadConfigFromFile(configFile)
	}

	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrConfigNotFound) {
		slog.Debug("No config file found, using defaults")

		return config.GetDefaultConfig(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// parseSetFlags turns repeated key=value flags into provider options. Values are
// read as YAML scalars, so "30" is a number, "true" a bool and "null" a nil.
func parseSetFlags(sets []string) (map[string]interface{}, error) {
	options := make(map[string]interface{}, len(sets))

	for _, set := range sets {
		key, raw, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", set)
		}

		var value interface{}
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			// Not a valid YAML scalar; keep the raw text.
			value = raw
		}

		switch value.(type) {
		case map[string]interface{}, []interface{}:
			value = raw
		}

		options[key] = value
	}

	return options, nil
}

// providerSettings resolves the provider name and options for a command. Overriding
// the provider drops the configured options, which belong to the configured provider.
func providerSettings(cfg *models.Config, providerOverride string, sets []string) (string, embeddings.Config, error) {
	name := cfg.Embeddings.Provider
	options := config.ProviderOptions(cfg)

	if providerOverride != "" &&
		embeddings.NormalizeProviderName(providerOverride) != embeddings.NormalizeProviderName(name) {
		name = providerOverride
		options = embeddings.Config{}
	}

	overrides, err := parseSetFlags(sets)
	if err != nil {
		return "", nil, err
	}

	for key, value := range overrides {
		options[key] = value
	}

	return name, options, nil
}

// createProvider builds the provider selected by config and flags.
func createProvider(cfg *models.Config, providerOverride string, sets []string) (embeddings.Provider, string, error) {
	name, options, err := providerSettings(cfg, providerOverride, sets)
	if err != nil {
		return nil, "", err
	}

	provider, err := embeddings.NewProvider(name, options)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create embedding provider: %w", err)
	}

	return provider, embeddings.NormalizeProviderName(name), nil
}

// closeProvider releases providers that hold resources.
func closeProvider(provider embeddings.Provider) {
	closer, ok := provider.(io.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close embedding provider", "error", err)
	}
}
