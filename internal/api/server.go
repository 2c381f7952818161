package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"cinebook/internal/cache"
	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/handlers"
	"cinebook/internal/jobs"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/middleware"
	"cinebook/internal/repository/postgres"
	"cinebook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP API: storage, cache, messaging, services, routes
// and the in-process reservation sweeper.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	cache    *cache.Client
	nats     *messaging.NATSClient
	services *service.Services
	sweeper  *jobs.ReservationExpiryJob
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	// Cache and NATS are optional. Without Redis every seat-map read hits
	// Postgres; without NATS events are dropped. Neither blocks startup.
	var cacheClient *cache.Client
	if cfg.Cache.Addr != "" {
		cacheClient, err = cache.NewClient(cfg.Cache)
		if err != nil {
			slog.Warn("redis unavailable, seat map caching disabled", "error", err)
			cacheClient = nil
		}
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	var natsClient *messaging.NATSClient
	if cfg.NATS.URL != "" {
		natsClient, err = messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			publisher = natsClient
		}
	}

	clk := clock.System()
	stores := postgres.NewStores(db)
	services := service.NewServices(stores, publisher, clk, cfg.Rules)
	sweeper := jobs.NewReservationExpiryJob(stores.Reservations, stores.Seats, publisher, clk, cfg.Rules.SweepInterval)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		cache:    cacheClient,
		nats:     natsClient,
		services: services,
		sweeper:  sweeper,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.cache)

	api := s.router.Group("/api")
	api.Use(middleware.Identity())
	{
		availability := api.Group("/availability")
		{
			availability.POST("/check", h.CheckAvailability)
		}

		reservations := api.Group("/reservations")
		{
			reservations.POST("", h.CreateReservation)
			reservations.PATCH("/extend", h.ExtendReservation)
			reservations.PATCH("/cancel", h.CancelReservation)
			reservations.GET("/:id", h.GetReservation)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.PATCH("/cancel", h.CancelBooking)
			bookings.GET("/:id", h.GetBooking)
		}

		seats := api.Group("/seats")
		{
			seats.POST("/price", h.GetSeatPrice)
		}

		shows := api.Group("/shows")
		{
			shows.POST("", h.CreateShow)
			shows.GET("/:id/seats", h.ListShowSeats)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	hc := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if hc.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   hc.Status,
		"service":  "cinebook-api",
		"database": hc,
	})
}

// StartSweeper runs the in-process reservation expiry job until ctx is done.
func (s *Server) StartSweeper(ctx context.Context) {
	s.sweeper.Start(ctx)
}

// RecoverCancelled re-releases seats left occupied by bookings that were
// cancelled right before a crash.
func (s *Server) RecoverCancelled(ctx context.Context) error {
	return s.services.Bookings.RecoverCancelled(ctx)
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	s.sweeper.Stop()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("error closing NATS connection", "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("error closing redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
