package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"academy/internal/app"
	"academy/internal/config"
	"academy/internal/handler"
	"academy/internal/mercadopago"
	"academy/internal/middleware"
	internalRedis "academy/internal/redis"
	"academy/internal/repository/postgres"
	"academy/internal/service"
)

func main() {
	cfg := config.Load()
	log := setupLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", slog.Any("error", err))
		} else {
			log.Info("New Relic enabled", slog.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp, log)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if err := app.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		log.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := app.NewRedisClient(cfg.Redis, nrApp)
	defer redisClient.Close()
	if err := app.PingRedis(ctx, redisClient); err != nil {
		log.Warn("redis unavailable, serving without training cache and idempotency replay",
			slog.String("addr", cfg.Redis.Addr),
			slog.Any("error", err),
		)
	} else {
		log.Info("connected to Redis")
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	server, err := wireServer(runCtx, db, redisClient, nrApp, cfg, log)
	if err != nil {
		log.Error("failed to wire server", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		log.Info("starting server", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// In-flight webhooks finish before the pools close.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" || env == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *slog.Logger) (*http.Server, error) {
	// Initialize Redis stores.
	idempotencyStore := internalRedis.NewIdempotencyStore(redisClient)

	// Initialize repositories.
	trainingRepo := internalRedis.NewTrainingCache(redisClient, postgres.NewTrainingRepository(db), log)
	registrationRepo := postgres.NewRegistrationRepository(db)

	// Initialize the payment provider.
	provider, err := mercadopago.NewAdapter(cfg.Payment.AccessToken, mercadopago.Options{
		NotificationURL: cfg.Payment.NotificationURL,
		Sandbox:         cfg.Payment.Sandbox,
	})
	if err != nil {
		return nil, err
	}
	verifier := mercadopago.NewWebhookVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance)

	// Initialize services.
	intentService := service.NewIntentService(trainingRepo, registrationRepo, provider, service.IntentConfig{
		Currency:     cfg.Payment.Currency,
		PaymentTypes: cfg.Payment.PaymentTypes,
		Timeout:      cfg.Payment.ProviderTimeout,
	}, log)
	reconciler := service.NewReconciler(trainingRepo, registrationRepo, provider, verifier, log)
	registrationService := service.NewRegistrationService(registrationRepo)

	router := app.NewRouter(app.RouterDeps{
		TrainingHandler:     handler.NewTrainingHandler(intentService),
		WebhookHandler:      handler.NewWebhookHandler(reconciler, log),
		RegistrationHandler: handler.NewRegistrationHandler(registrationService),
		IdempotencyStore:    idempotencyStore,
		RateLimiter:         middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst, 3*time.Minute),
		DB:                  db,
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
		Logger:              log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
