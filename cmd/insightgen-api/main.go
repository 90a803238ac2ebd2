// Package main provides the InsightGen API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/jobs"
	"github.com/sumitkamra20/insightgen/internal/llm"
	"github.com/sumitkamra20/insightgen/internal/observability"
	"github.com/sumitkamra20/insightgen/internal/pipeline"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "insightgen-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("generators_source", cfg.Generators.Source).
		Str("model", cfg.Completion.DefaultModel).
		Msg("Starting InsightGen API")

	source, closeSource, err := openGeneratorSource(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open generator source")
	}
	defer closeSource()

	registry, err := generator.NewRegistry(logger, source, generatorDefaults(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load generator registry")
	}
	logger.Info().Int("generators", registry.Len()).Msg("Generator registry loaded")

	completions, err := llm.NewClient(cfg.Completion, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create completion client")
	}

	pipe := pipeline.New(logger, registry, completions, cfg.Pipeline)
	manager := jobs.NewManager(logger, cfg.Jobs.Retention, cfg.Jobs.Timeout)

	router := NewRouter(logger, cfg, registry, pipe, manager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// openGeneratorSource builds the configured generator source. The returned
// close function is a no-op for directory sources.
func openGeneratorSource(cfg *config.Config) (generator.Source, func(), error) {
	if cfg.Generators.Source == "sqlite" {
		store, err := generator.OpenSQLiteStore(cfg.Generators.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	return generator.NewDirSource(cfg.Generators.Dir), func() {}, nil
}

func generatorDefaults(cfg *config.Config) generator.Defaults {
	return generator.Defaults{
		Model:       cfg.Completion.DefaultModel,
		Temperature: 0.5,
		MaxTokens:   1000,
		Workflow: domain.WorkflowSpec{
			ContextWindowSize: cfg.Pipeline.ContextWindowSize,
			Parallelism:       cfg.Pipeline.Parallelism,
			BatchSize:         cfg.Pipeline.BatchSize,
		},
	}
}
