package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leaguereg/internal/config"
	"leaguereg/internal/database"
	"leaguereg/internal/handlers"
	"leaguereg/internal/payments"
	"leaguereg/internal/repository"
	"leaguereg/internal/security"
	"leaguereg/internal/service"
	"leaguereg/internal/session"
)

func main() {
	// A missing .env is normal in production
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	log.Info().Msg("Migrations completed successfully")

	// Wizard state lives in Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	store, err := session.NewRedis(&session.Config{RedisClient: redisClient, TTL: cfg.WizardTTL})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}

	gateway, err := payments.NewGateway(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure payment gateway")
	}
	log.Info().Str("provider", gateway.Name()).Msg("Payment gateway configured")

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}

	// Initialize services
	userRepo := repository.NewUserRepository(db)
	tokens := security.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)
	authService := service.NewAuthService(userRepo, tokens, emailService, cfg.SessionDuration)
	formService := service.NewFormService(repository.NewFormRepository(db), cfg.RegistrationYear)
	registrationService := service.NewRegistrationService(db, store, gateway, formService, authService, emailService, cfg.PaymentCurrency)

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(20, time.Minute)
	defer limiter.Stop()

	middleware := handlers.NewMiddleware(authService, csrf, limiter)
	authHandler := handlers.NewAuthHandler(authService, csrf)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, formService, csrf)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(middleware, authHandler, registrationHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, authService)

	go func() {
		log.Info().Msgf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Error().Err(err).Msg("Error cleaning up expired sessions")
			}
		}
	}
}
