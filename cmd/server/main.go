package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dsxlab/analytics-extension/internal/config"
	"github.com/dsxlab/analytics-extension/internal/registry"
	"github.com/dsxlab/analytics-extension/internal/repository"
	"github.com/dsxlab/analytics-extension/internal/services"
	"github.com/dsxlab/analytics-extension/internal/store"
	"github.com/dsxlab/analytics-extension/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	_ = os.MkdirAll(cfg.LogDir, 0755)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Log startup event
	db.Event("info", "startup", "Server starting", map[string]interface{}{
		"models_dir": cfg.ModelsDir,
		"http_addr":  cfg.HTTPAddr,
		"db_path":    cfg.DBPath,
	})

	// Initialize repository
	repo := repository.NewSQLiteRepository(db)

	// Initialize model registry
	reg := registry.New(cfg.ModelsDir)
	infos, err := reg.List()
	if err != nil {
		db.Event("error", "registry.failed", "Model registry scan failed", map[string]interface{}{
			"models_dir": cfg.ModelsDir,
			"error":      err.Error(),
		})
		slog.Error("Failed to scan model registry", "error", err)
		os.Exit(1)
	}
	db.Event("info", "registry.ready", "Model registry scanned", map[string]interface{}{
		"models_dir": cfg.ModelsDir,
		"models":     len(infos),
	})

	// Initialize services
	extensionService := services.NewExtensionService(reg, repo, cfg.LogDir)

	db.Event("info", "services.init", "Initializing services", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"nats_url":  cfg.NatsURL,
	})

	// Initialize NATS service
	natsService, err := services.NewNATSService(cfg, extensionService)
	if err != nil {
		db.Event("error", "nats.failed", "NATS service initialization failed", map[string]interface{}{
			"nats_url": cfg.NatsURL,
			"error":    err.Error(),
		})
		slog.Error("Failed to create NATS service", "error", err)
		os.Exit(1)
	}

	// Start HTTP server
	httpServer := server.NewServer(cfg.HTTPAddr, extensionService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log server ready
	db.Event("info", "server.ready", "Server ready to accept requests", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"nats_url":  cfg.NatsURL,
		"models":    len(infos),
	})

	// Start all services
	go func() {
		if err := httpServer.Start(ctx); err != nil {
			db.Event("error", "http.failed", "HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	go func() {
		if err := natsService.Start(ctx); err != nil {
			db.Event("error", "nats.failed", "NATS service failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("NATS service failed", "error", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("Shutting down server")
}
