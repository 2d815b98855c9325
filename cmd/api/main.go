package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billsync/reconcile-backend/internal/api"
	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/infrastructure/config"
	"github.com/billsync/reconcile-backend/internal/infrastructure/logging"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		port       = flag.Int("port", 0, "Override the configured HTTP port")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := logging.NewLogger(cfg.Observability.Logging)

	matchingCfg, err := cfg.Matching.Domain()
	if err != nil {
		logger.Error("Invalid matching configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	service := reconcile.NewService(store, matchingCfg, logger)

	serverCfg := api.DefaultConfig()
	if cfg.Server.Port != 0 {
		serverCfg.Port = cfg.Server.Port
	}
	if *port != 0 {
		serverCfg.Port = *port
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	server := api.NewServer(serverCfg, store, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}
