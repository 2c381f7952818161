package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinebook/internal/api"
	"cinebook/internal/config"
	"cinebook/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	server := api.NewServer(cfg)

	// Re-release seats orphaned by a crash mid-cancellation, then start the
	// in-process expiry sweeper.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := server.RecoverCancelled(startupCtx); err != nil {
		slog.Error("failed to recover cancelled bookings", "error", err)
	}
	startupCancel()

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	server.StartSweeper(sweepCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.GetRouter(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	sweepCancel()

	if err := server.Cleanup(); err != nil {
		slog.Error("error during cleanup", "error", err)
	}

	slog.Info("server stopped")
}
