package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"embedkit/internal/config"
	"embedkit/internal/embeddings"
	"embedkit/pkg/models"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

var (
	configInitForce          bool
	configInitNonInteractive bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a configuration file in the config directory (or at --config).

In a terminal an interactive form asks for the provider and its main options.
Use --non-interactive to write the defaults instead.`,
	Args: cobra.NoArgs,
	RunE: runConfigInitCommand,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}

		return writeConfigYAML(cmd.OutOrStdout(), cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and build its provider",
	Long: `Validate the configuration file and construct the configured provider.

Constructing the provider checks every option key. For sentence-transformers
this loads the model, downloading it on first use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}

		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}

		provider, name, err := createProvider(cfg, "", nil)
		if err != nil {
			return err
		}

		defer closeProvider(provider)

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (provider: %s)\n", name)

		if sized, ok := provider.(interface{ Dimensions() int }); ok && sized.Dimensions() > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Embedding dimensions: %d\n", sized.Dimensions())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().BoolVar(&configInitNonInteractive, "non-interactive", false, "Write the default configuration without prompting")
}

func runConfigInitCommand(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}

		path = filepath.Join(dir, config.ConfigFileName)
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()

	if !configInitNonInteractive && term.IsTerminal(int(os.Stdin.Fd())) {
		var err error

		cfg, err = runConfigWizard()
		if err != nil {
			return err
		}
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	if err := config.SaveConfigToFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

	return nil
}

// runConfigWizard asks for a provider, then for that provider's main options.
func runConfigWizard() (*models.Config, error) {
	provider := embeddings.ProviderOllama
	addr := config.DefaultServerAddr

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Embedding provider").
				Options(huh.NewOptions(embeddings.SupportedProviders()...)...).
				Value(&provider),
			huh.NewInput().
				Title("Server listen address").
				Value(&addr),
		),
	).Run()
	if err != nil {
		return nil, fmt.Errorf("config wizard cancelled: %w", err)
	}

	options := map[string]interface{}{}

	var (
		fields  []huh.Field
		collect func()
	)

	switch provider {
	case embeddings.ProviderOllama:
		model, baseURL := embeddings.DefaultOllamaModel, embeddings.DefaultOllamaBaseURL
		fields = append(fields,
			huh.NewInput().Title("Model").Value(&model),
			huh.NewInput().Title("Ollama base URL").Value(&baseURL),
		)

		collect = func() {
			options["model"] = model
			options["base_url"] = baseURL
		}

	case embeddings.ProviderOpenAI:
		model, apiKey, timeout := embeddings.DefaultOpenAIModel, "", ""
		fields = append(fields,
			huh.NewInput().Title("Model").Value(&model),
			huh.NewInput().
				Title("API key").
				Description("Leave empty to use " + embeddings.OpenAIAPIKeyEnv).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Request timeout in seconds").
				Description("Leave empty for the default").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}

					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("enter a positive number")
					}

					return nil
				}).
				Value(&timeout),
		)

		collect = func() {
			options["model"] = model

			if apiKey != "" {
				options["api_key"] = apiKey
			}

			if timeout != "" {
				seconds, _ := strconv.ParseFloat(timeout, 64)
				options["timeout"] = seconds
			}
		}

	case embeddings.ProviderSentenceTransformers:
		model, normalize := embeddings.DefaultLocalModel, false
		fields = append(fields,
			huh.NewInput().
				Title("Model").
				Validate(func(s string) error {
					_, err := embeddings.ResolveLocalModel(s)

					return err
				}).
				Value(&model),
			huh.NewConfirm().Title("Normalize embeddings to unit length?").Value(&normalize),
		)

		collect = func() {
			options["model"] = model
			options["normalize_embeddings"] = normalize
		}
	}

	if err := runFieldsForm(fields); err != nil {
		return nil, err
	}

	if collect != nil {
		collect()
	}

	return &models.Config{
		Embeddings: models.EmbeddingsConfig{Provider: provider, Options: options},
		Server:     models.ServerConfig{Addr: addr},
	}, nil
}

func runFieldsForm(fields []huh.Field) error {
	if len(fields) == 0 {
		return nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("config wizard cancelled: %w", err)
	}

	return nil
}

// writeConfigYAML prints cfg with secrets masked.
func writeConfigYAML(w io.Writer, cfg *models.Config) error {
	shown := *cfg
	shown.Embeddings.Options = config.ProviderOptions(cfg)

	if _, ok := shown.Embeddings.Options["api_key"]; ok {
		shown.Embeddings.Options["api_key"] = redacted
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = w.Write(data)

	return err
}
