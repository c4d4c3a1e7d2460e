// Package main provides the entry point for the Kiga-ers paper discovery
// server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nishipippi/kiga-ers/internal/arxiv"
	"github.com/nishipippi/kiga-ers/internal/config"
	"github.com/nishipippi/kiga-ers/internal/deck"
	"github.com/nishipippi/kiga-ers/internal/library"
	"github.com/nishipippi/kiga-ers/internal/llm"
	"github.com/nishipippi/kiga-ers/internal/observability"
	"github.com/nishipippi/kiga-ers/internal/pdf"
	httpserver "github.com/nishipippi/kiga-ers/internal/server/http"
	"github.com/nishipippi/kiga-ers/internal/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("kiga-ers server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the local SQLite database and run migrations.
	db, err := library.OpenDB(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Info().Str("path", cfg.Storage.Path).Msg("database opened")

	migrator, err := library.NewMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	metrics := observability.Default()

	// Load the liked-paper library. Load failures are non-fatal; the store
	// starts empty and logs the problem.
	libraryStore := library.NewStore(library.NewSQLitePersister(db), logger)
	libraryStore.Load(ctx)
	metrics.SetLikedPapers(libraryStore.Len())

	// Create the arXiv search client, wrapped with fetch metrics.
	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:         cfg.ArXiv.BaseURL,
		Timeout:         cfg.ArXiv.Timeout,
		RateLimit:       cfg.ArXiv.RateLimit,
		DefaultCategory: cfg.ArXiv.DefaultCategory,
	})
	searcher := deck.NewInstrumentedSearcher(arxivClient, "arxiv", metrics)

	// Create the LLM generator and summary service.
	generator, err := llm.NewGenerator(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("create LLM generator: %w", err)
	}
	logger.Info().
		Str("provider", generator.Provider()).
		Str("model", generator.Model()).
		Msg("LLM generator initialized")

	downloader := pdf.NewDownloader(pdf.Config{
		Timeout: cfg.PDF.Timeout,
		MaxSize: cfg.PDF.MaxSizeBytes,
	})
	summaryService := summary.NewService(generator, downloader, logger)

	// Create the deck session manager.
	deckManager := deck.NewManager(searcher, libraryStore, deck.Options{
		PageSize:  cfg.Deck.PageSize,
		StackSize: cfg.Deck.StackSize,
	}, logger)

	// Create HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(
		httpCfg,
		deckManager,
		libraryStore,
		summaryService,
		db,
		metrics,
		logger,
	)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("kiga-ers is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down kiga-ers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
