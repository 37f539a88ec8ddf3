package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"litmap/internal/api"
	"litmap/internal/config"
	"litmap/internal/extract"
	"litmap/internal/geocode"
	"litmap/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	gemini := extract.NewClient(cfg.GeminiAPIKey, "")
	extractor := extract.NewExtractor(gemini, cfg.GeminiModel, cfg.GeminiFallbackModel, log)

	maps := geocode.NewGoogleClient(cfg.GoogleMapsAPIKey, "")
	cache, err := geocode.OpenCache(cfg.GeocodeCachePath, maps)
	if err != nil {
		log.Error("failed to open geocode cache", "path", cfg.GeocodeCachePath, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, extractor, cache, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, gemini, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		gemini.Close()
		maps.Close()
		cache.Close()
	}()

	log.Info("starting litmap", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
