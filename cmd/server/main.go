// Package main is the entry point for the India Info API server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gsharma/indiainfo/internal/config"
	"github.com/gsharma/indiainfo/internal/database"
	"github.com/gsharma/indiainfo/internal/handler"
	"github.com/gsharma/indiainfo/internal/middleware"
	"github.com/gsharma/indiainfo/internal/repository"
	"github.com/gsharma/indiainfo/internal/service"
)

func main() {
	// Setup structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Starting India Info API",
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
	)

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Connect to Redis (session store)
	redis, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Chief-minister override table
	overrides, err := service.LoadCMOverrides(cfg.Regions.CMOverridesFile)
	if err != nil {
		log.Fatalf("Failed to load CM overrides: %v", err)
	}
	logger.Info("Loaded CM overrides", slog.Int("states", len(overrides)))

	// Repositories
	userRepo := repository.NewUserRepository(db.Pool())
	regionRepo := repository.NewRegionRepository(db.Pool())
	sessionRepo := repository.NewSessionRepository(redis)
	resetRepo := repository.NewResetTokenRepository(db.Pool())

	// Email transport for password resets
	mailer, err := service.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}

	// Services
	authService := service.NewAuthService(&cfg.Auth, userRepo, sessionRepo, resetRepo, mailer)
	oauthService := service.NewOAuthService(&cfg.Auth, userRepo, authService)
	regionService := service.NewRegionService(regionRepo, overrides)

	// Purge expired reset tokens hourly until shutdown
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go authService.SweepExpiredResetTokens(sweepCtx, time.Hour)

	// Cookie transport for the opaque session token
	cookieStore := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.SameSite = http.SameSiteLaxMode
	cookieStore.Options.Secure = cfg.Server.Environment == "prod"
	cookieStore.Options.MaxAge = int(cfg.Auth.SessionExpiry.Seconds())

	// Handlers
	regionHandler := handler.NewRegionHandler(regionService, logger)
	authHandler := handler.NewAuthHandler(authService, oauthService, cookieStore, logger)

	// Setup router
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Health check endpoints (no auth required)
	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(db, redis))
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", regionHandler.GetState)
		r.Get("/district", regionHandler.GetDistrict)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Get("/me", authHandler.Me)
	})

	// OAuth dance and logout
	r.Get("/auth/{provider}", authHandler.OAuthStart)
	r.Get("/auth/{provider}/callback", authHandler.OAuthCallback)
	r.Get("/logout", authHandler.Logout)

	// Static site pages
	fileServer := http.FileServer(http.Dir(cfg.Server.StaticDir))
	r.Handle("/*", fileServer)

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}

// healthHandler returns a simple health check that always succeeds if the
// server is running.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// readyHandler returns a readiness check that verifies database and Redis
// connections.
func readyHandler(db *database.Postgres, redis *database.Redis) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"database"}`))
			return
		}

		if err := redis.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"redis"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","database":"connected","redis":"connected"}`))
	}
}
