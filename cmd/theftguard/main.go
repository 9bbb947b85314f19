// Package main provides the theft detection service entry point.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ackah054/theft-detection/internal/alerts"
	"github.com/Ackah054/theft-detection/internal/api"
	"github.com/Ackah054/theft-detection/internal/classifier"
	"github.com/Ackah054/theft-detection/internal/config"
	"github.com/Ackah054/theft-detection/internal/core"
	"github.com/Ackah054/theft-detection/internal/database"
	"github.com/Ackah054/theft-detection/internal/video"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load configuration", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Initialize structured logging. The level lives in a LevelVar so config
	// reloads can adjust it without rebuilding the handler.
	logLevel := new(slog.LevelVar)
	logLevel.Set(cfg.LogLevel())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if *configPath != "" {
		cfg.OnChange(func(c *config.Config) {
			logLevel.Set(c.LogLevel())
		})
		if err := cfg.Watch(); err != nil {
			slog.Warn("Failed to watch config file", "path", *configPath, "error", err)
		}
	}

	slog.Info("Starting theft detection service", "version", cfg.Version, "addr", cfg.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert storage: SQLite when a path is configured, in-memory otherwise
	var store alerts.Store
	if cfg.Database.Path != "" {
		db, err := database.Open(&database.Config{Path: cfg.Database.Path})
		if err != nil {
			slog.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.NewMigrator(db).Run(ctx); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		store = alerts.NewSQLiteStore(db)
	} else {
		slog.Info("No database path configured, using in-memory alert store")
		store = alerts.NewMemoryStore()
	}

	if cfg.Alerting.SeedSamples {
		if err := alerts.SeedSampleAlerts(ctx, store); err != nil {
			slog.Warn("Failed to seed sample alerts", "error", err)
		}
	}

	// The model is optional; the classifier falls back to the heuristic
	// backend when it is absent or fails to load.
	var model *classifier.Model
	if cfg.Detection.ModelPath != "" {
		loaded, err := classifier.LoadModel(cfg.Detection.ModelPath)
		if err != nil {
			slog.Warn("Failed to load model, continuing without it", "path", cfg.Detection.ModelPath, "error", err)
		} else {
			model = loaded
			defer model.Close()
		}
	}

	pipeline := classifier.NewPipeline(model, nil)
	sampler := video.NewSampler(pipeline, nil)

	// Optional embedded event bus for downstream alert consumers
	var bus *core.EventBus
	var publisher alerts.Publisher
	if cfg.Bus.Enabled {
		busCfg := core.EventBusConfig{Host: cfg.Bus.Host, Port: cfg.Bus.Port}
		eb, err := core.NewEventBus(busCfg, logger)
		if err != nil {
			slog.Error("Failed to start event bus", "error", err)
			os.Exit(1)
		}
		defer eb.Stop()
		bus = eb
		publisher = bus
	}

	synth := alerts.NewSynthesizer(store, publisher)

	hub := api.NewHub()
	go hub.Run()

	handler := api.NewHandler(pipeline, sampler, store, synth, hub, cfg)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // video analysis can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", cfg.Addr(), "model_loaded", pipeline.ModelLoaded())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	slog.Info("Server stopped")
}
