// Orderd is the page ordering daemon.
//
// It exposes an HTTP API that accepts extracted, possibly shuffled document
// pages and reconstructs their reading order with embedding similarity,
// flow heuristics, and an optional reasoning-service advisor.
//
// Configuration is loaded from ~/.config/orderd/config.yaml and ORDERD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	orderd
//
//	# Configure via environment
//	ORDERD_SERVER_PORT=9191 ORDERD_ADVISOR_ENABLED=true orderd
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

	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/advisor"
	"github.com/quirelabs/orderd/internal/config"
	"github.com/quirelabs/orderd/internal/embeddings"
	httpapi "github.com/quirelabs/orderd/internal/http"
	"github.com/quirelabs/orderd/internal/jobs"
	"github.com/quirelabs/orderd/internal/logging"
	"github.com/quirelabs/orderd/internal/resolver"
	"github.com/quirelabs/orderd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  orderd           Start the orderd daemon\n")
			fmt.Fprintf(os.Stderr, "  orderd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("orderd by Quire Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the orderd server and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("preparing config directory: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting orderd",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("advisor_enabled", cfg.Advisor.Enabled),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.Setup("orderd", version)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	store := jobs.NewStore()
	srv, err := httpapi.NewServer(engine, store, logger, &httpapi.Config{
		Host:         "",
		Port:         cfg.Server.Port,
		MinTextRunes: cfg.Ordering.MinTextRunes,
	}, tel.Registry())
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// buildEngine wires the embedding indexer, the optional advisor, and the
// resolver from configuration.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*resolver.Resolver, error) {
	embeddingSvc, err := embeddings.NewService(cfg.Embedding.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}
	indexer, err := embeddings.NewIndexer(embeddingSvc, cfg.Embedding.Indexer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	var orderAdvisor resolver.OrderAdvisor
	if cfg.Advisor.Enabled {
		client, err := advisor.NewOpenAIClient(cfg.Advisor.Client)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor client: %w", err)
		}
		adv, err := advisor.New(client, cfg.Advisor.Options, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor: %w", err)
		}
		orderAdvisor = adv
		logger.Info("Advisor enabled",
			zap.String("base_url", cfg.Advisor.Client.BaseURL),
			zap.String("model", cfg.Advisor.Client.Model))
	} else {
		logger.Info("Advisor disabled, using deterministic ordering only")
	}

	engine, err := resolver.New(indexer, orderAdvisor, cfg.Ordering.Resolver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	return engine, nil
}
