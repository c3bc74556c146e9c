package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/loanledger/internal/config"
	"github.com/JonMunkholm/loanledger/internal/ingest"
	"github.com/JonMunkholm/loanledger/internal/logging"
	"github.com/JonMunkholm/loanledger/internal/metrics"
	"github.com/JonMunkholm/loanledger/internal/session"
	"github.com/JonMunkholm/loanledger/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; variables already set take precedence
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	opts := ingest.DefaultOptions()
	opts.ScanWindow = cfg.Ingest.ScanWindow
	opts.FallbackHeaderRow = cfg.Ingest.FallbackHeaderRow
	if cfg.Ingest.SynonymsFile != "" {
		syn, err := ingest.LoadSynonyms(cfg.Ingest.SynonymsFile)
		if err != nil {
			slog.Error("failed to load synonyms", "path", cfg.Ingest.SynonymsFile, "error", err)
			os.Exit(1)
		}
		opts.Synonyms = syn
		slog.Info("synonyms loaded", "path", cfg.Ingest.SynonymsFile, "fields", len(syn))
	}

	m := metrics.New(cfg.Metrics.Enabled)
	cache := ingest.NewCache(ingest.NewPipeline(opts), cfg.Ingest.CacheTTL)
	ctrl := session.NewController(cache, session.WithObserver(m))
	server := web.NewServer(ctrl, cfg, m)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
