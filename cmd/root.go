package main

import (
	"fmt"
	"log/slog"
	"os"

	"embedkit/internal/config"

	"github.com/spf13/cobra"
)

var (
	configDir  string
	configFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "embedkit",
	Short: "Generate text embeddings with Ollama, OpenAI or local models",
	Long: `embedkit turns text into embedding vectors through a single provider
interface backed by Ollama, the OpenAI embeddings API, or an in-process
sentence-transformers model.

Commands:
  embed     Embed texts from arguments, a file, or stdin
  models    List and resolve local sentence-transformers models
  serve     Serve embeddings over HTTP
  config    Manage configuration files`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on debug flag
		level := slog.LevelInfo
		if debugMode {
			level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		if configDir != "" {
			config.SetCustomConfigDir(configDir)
		}

		if _, err := config.LoadEnv(); err != nil {
			slog.Warn("Failed to load .env file", "error", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Custom configuration directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (skips the search paths)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
