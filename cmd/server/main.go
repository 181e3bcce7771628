package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pagecraft/internal/api"
	"github.com/dgallion1/pagecraft/internal/config"
	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/fallback"
	"github.com/dgallion1/pagecraft/internal/results"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Generative fallback is optional.
	collab, err := fallback.New(cfg.Fallback(), fallback.NewStats(cfg.StatsWindow), log)
	if err != nil {
		log.Error("configure fallback", "error", err)
		os.Exit(1)
	}
	var gf engine.GenerativeFallback
	if collab != nil {
		gf = collab
		log.Info("generative fallback enabled", "provider", collab.Provider().Name(), "model", collab.Provider().Model())
	} else {
		log.Info("generative fallback unavailable, using rules only")
	}

	eng := engine.New(gf, log)

	store := results.NewStore(cfg.ResultTTL)
	go store.Run(ctx, 5*time.Minute)

	srv := api.NewServer(eng, store, collab, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.FallbackTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting pagecraft", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
