package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/config"
	"github.com/ekaya-inc/ekaya-charts/pkg/handlers"
	"github.com/ekaya-inc/ekaya-charts/pkg/logging"
	"github.com/ekaya-inc/ekaya-charts/pkg/middleware"
	"github.com/ekaya-inc/ekaya-charts/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *printConfig {
		if err := config.Write(os.Stdout, cfg); err != nil {
			log.Fatalf("Failed to print config: %v", err)
		}
		return
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Int("min_scorecards", cfg.Pipeline.MinScorecards),
		zap.Int("max_scorecards", cfg.Pipeline.MaxScorecards),
		zap.Int("min_visualizations", cfg.Pipeline.MinVisualizations),
		zap.Bool("require_table", cfg.Pipeline.RequireTable),
		zap.Int("workers", cfg.Pipeline.Workers))

	pipeline := services.NewRecommendationPipeline(cfg.Pipeline.ServiceConfig(), logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewRecommendationsHandler(pipeline, cfg.MaxBodyBytes, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(middleware.Recoverer(logger)(mux))

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-charts",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
