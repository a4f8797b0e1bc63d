package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"embedkit/internal/embeddings"
	"embedkit/pkg/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yaml"
	appDirName     = "embedkit"

	DefaultServerAddr = "127.0.0.1:8080"
)

// ErrConfigNotFound is returned by LoadConfig when no search path holds a config file.
var ErrConfigNotFound = errors.New("config file not found")

// envFiles are loaded in order; values already in the environment win.
var envFiles = []string{".env", ".env.local"}

var customConfigDir string

// SetCustomConfigDir overrides the global config directory for loading and saving.
func SetCustomConfigDir(dir string) {
	customConfigDir = dir
}

// GetConfigDir returns the directory config.yaml is saved to.
func GetConfigDir() (string, error) {
	if customConfigDir != "" {
		return customConfigDir, nil
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	return filepath.Join(userConfigDir, appDirName), nil
}

// LoadConfig loads configuration from the standard search paths.
func LoadConfig() (*models.Config, error) {
	// Search for config file in order:
	// 1. Custom config dir (if set)
	// 2. Global config directory
	// 3. Current directory
	configPaths := getConfigSearchPaths()

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err == nil {
			slog.Debug("loading config", "path", configPath)

			return LoadConfigFromFile(configPath)
		}
	}

	return nil, fmt.Errorf("%w in search paths: %v", ErrConfigNotFound, configPaths)
}

// LoadConfigFromFile loads configuration from a specific file.
func LoadConfigFromFile(configPath string) (*models.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg models.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to the appropriate location and returns the path written.
func SaveConfig(cfg *models.Config) (string, error) {
	configPath, err := getConfigFilePath()
	if err != nil {
		return "", fmt.Errorf("failed to get config file path: %w", err)
	}

	if err := SaveConfigToFile(cfg, configPath); err != nil {
		return "", err
	}

	return configPath, nil
}

// SaveConfigToFile writes cfg as YAML to configPath, creating parent directories.
func SaveConfigToFile(cfg *models.Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// API keys may live in options.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *models.Config {
	return &models.Config{
		Embeddings: models.EmbeddingsConfig{
			Provider: embeddings.ProviderOllama,
			Options: map[string]interface{}{
				"model":    embeddings.DefaultOllamaModel,
				"base_url": embeddings.DefaultOllamaBaseURL,
			},
		},
		Server: models.ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// CreateDefaultConfig creates and saves a default configuration.
func CreateDefaultConfig() (string, error) {
	return SaveConfig(GetDefaultConfig())
}

// LoadEnv loads .env files from the current directory into the process environment.
// Missing files are skipped. It returns the files that were loaded.
func LoadEnv() ([]string, error) {
	var loaded []string

	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}

		if err := godotenv.Load(envPath); err != nil {
			return loaded, fmt.Errorf("error loading %s file: %w", envPath, err)
		}

		slog.Debug("loaded environment file", "path", envPath)

		loaded = append(loaded, envPath)
	}

	return loaded, nil
}

// ProviderOptions returns a copy of the configured provider options, ready to be
// consumed by embeddings.NewProvider.
func ProviderOptions(cfg *models.Config) embeddings.Config {
	return embeddings.Config(cfg.Embeddings.Options).Clone()
}

// getConfigSearchPaths returns the list of paths to search for config files.
func getConfigSearchPaths() []string {
	var paths []string

	// Custom config dir (if set via --config-dir flag)
	if customConfigDir != "" {
		paths = append(paths, filepath.Join(customConfigDir, ConfigFileName))
	}

	// Global config directory
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(userConfigDir, appDirName, ConfigFileName))
	}

	// Current directory
	paths = append(paths, ConfigFileName)

	return paths
}

// getConfigFilePath returns the path where config should be saved.
func getConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ConfigFileName), nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// ValidateConfig checks the structure of the configuration and that the provider is known.
// Provider option keys are left to the provider factory.
func ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return formatValidationErrors(validationErrs)
		}

		return fmt.Errorf("invalid configuration: %w", err)
	}

	provider := embeddings.NormalizeProviderName(cfg.Embeddings.Provider)
	if !slices.Contains(embeddings.SupportedProviders(), provider) {
		return fmt.Errorf("embeddings configuration error: unsupported provider '%s' (supported: %s)",
			cfg.Embeddings.Provider, strings.Join(embeddings.SupportedProviders(), ", "))
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))

	for _, fe := range errs {
		// Drop the root type name: "Config.embeddings.provider" -> "embeddings.provider".
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "hostname_port":
			messages = append(messages, fmt.Sprintf("%s must be a host:port address, got %q", field, fe.Value()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed '%s' validation", field, fe.Tag()))
		}
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
