package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"terminfinder/internal/config"
	"terminfinder/internal/handler"
	"terminfinder/internal/middleware"
	"terminfinder/internal/repository"
	"terminfinder/internal/service"
	"terminfinder/pkg/database"
	"terminfinder/pkg/logger"
	"terminfinder/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed")
		}
	}

	if r.db != nil {
		r.db.Close()
		r.log.Info("Database connection pool closed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Redis is optional; without it every read goes to Postgres
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing without cache")
			redisClient = nil
		}
	}

	resources := &Resources{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}

	pollRepo := repository.NewPollRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	locks := service.NewPollLocks()
	var cache *service.CacheService
	if redisClient != nil {
		cache = service.NewCacheService(redisClient, log.Logger)
	}

	bookingService := service.NewBookingService(bookingRepo, locks, cache, cfg.SubmitLockTimeout, log.Logger)
	resultsService := service.NewResultsService(pollRepo, cache, log.Logger)
	adminService := service.NewAdminService(pollRepo, locks, cache, cfg.SubmitLockTimeout, log.Logger)
	authService := service.NewAuthService(cfg.AdminPassword, cfg.JWTSecret)

	pollHandler := handler.NewPollHandler(bookingService, resultsService, log)
	adminHandler := handler.NewAdminHandler(adminService, authService, cfg.BaseURL, log)

	var redisPinger handler.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	healthHandler := handler.NewHealthHandler(db, redisPinger, log)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins
	r.Use(middleware.CORS(corsConfig, log))

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Get("/polls", pollHandler.ListPolls)
		r.Get("/polls/{publicID}", pollHandler.GetPoll)
		r.Post("/polls/{publicID}/responses", pollHandler.SubmitResponses)
		r.Post("/polls/{publicID}/bookings", pollHandler.SubmitBookings)

		r.With(middleware.OptionalAdminAuth(authService, log)).
			Get("/polls/{publicID}/results", pollHandler.GetResults)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(authService, log))
				r.Post("/polls", adminHandler.CreatePoll)
				r.Put("/polls/{pollID}", adminHandler.UpdatePoll)
				r.Delete("/polls/{pollID}", adminHandler.DeletePoll)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	resources.server = server

	serverErrors := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server failed")
		}
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := resources.Cleanup(cleanupCtx); err != nil {
		log.WithError(err).Error("Cleanup failed")
		os.Exit(1)
	}
}
