package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"embedkit/internal/config"
	"embedkit/internal/embeddings"
	"embedkit/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveProvider string
	serveSets     []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve embeddings over HTTP",
	Long: `Serve the configured provider over HTTP until interrupted.

Endpoints:
  GET  /health          Liveness check
  POST /v1/embeddings   {"input": ["text", ...]} -> {"provider": ..., "data": [{"index", "embedding"}]}
  GET  /metrics         Prometheus metrics

Examples:
  embedkit serve
  embedkit serve --addr 0.0.0.0:9000 --provider openai`,
	Args: cobra.NoArgs,
	RunE: runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, then "+config.DefaultServerAddr+")")
	serveCmd.Flags().StringVarP(&serveProvider, "provider", "p", "", "Provider to use instead of the configured one")
	serveCmd.Flags().StringArrayVar(&serveSets, "set", nil, "Provider option as key=value (repeatable)")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	if addr == "" {
		addr = config.DefaultServerAddr
	}

	provider, name, err := createProvider(cfg, serveProvider, serveSets)
	if err != nil {
		return err
	}
	defer closeProvider(provider)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := embeddings.NewMetrics(registry)

	srv := server.NewServer(server.Config{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		Debug:        debugMode,
	}, name, metrics.Wrap(name, provider), registry, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("embedding server failed: %w", err)
	}

	return nil
}
