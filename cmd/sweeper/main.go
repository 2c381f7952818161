package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/jobs"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/repository/postgres"
)

// Standalone expiry sweeper for deployments that run the API with the
// in-process sweeper disabled, or that want sweeping isolated from request
// serving. Safe to run alongside the API sweeper: seat release is
// conditional and reservation deletion is idempotent.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting sweeper service")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		cfg.NATS.ClientID = "cinebook-sweeper"
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			publisher = natsClient
			defer natsClient.Close()
		}
	}

	stores := postgres.NewStores(db)
	job := jobs.NewReservationExpiryJob(stores.Reservations, stores.Seats, publisher, clock.System(), cfg.Rules.SweepInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job.Start(ctx)

	slog.Info("sweeper service started", "interval", cfg.Rules.SweepInterval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down sweeper service")
	job.Stop()
	slog.Info("sweeper service stopped")
}
