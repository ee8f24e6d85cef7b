package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"academy/internal/handler"
	"academy/internal/middleware"
	internalRedis "academy/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TrainingHandler     *handler.TrainingHandler
	WebhookHandler      *handler.WebhookHandler
	RegistrationHandler *handler.RegistrationHandler
	IdempotencyStore    internalRedis.IdempotencyStoreInterface
	RateLimiter         *middleware.RateLimiter
	DB                  *sql.DB
	RedisClient         *redis.Client
	NewRelicApp         *newrelic.Application
	Logger              *slog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", healthHandler(deps.DB, deps.RedisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		trainings := v1.Group("/trainings")
		{
			trainings.GET("/:id/availability", deps.TrainingHandler.GetAvailability)
			trainings.POST("/:id/payment-intents",
				middleware.RateLimitMiddleware(deps.RateLimiter),
				middleware.IdempotencyMiddleware(deps.IdempotencyStore, deps.Logger),
				deps.TrainingHandler.CreatePaymentIntent,
			)
		}

		// Provider notifications; authenticated by signature, not rate limited.
		v1.POST("/webhooks/payments", deps.WebhookHandler.HandlePayment)

		v1.GET("/registrations/by-transaction/:transaction_id", deps.RegistrationHandler.GetByTransaction)
	}

	return router
}

// healthHandler reports whether the database and Redis answer.
func healthHandler(db *sql.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["database"] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		// Redis only backs the cache and the idempotency replay.
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = "unavailable"
				status["status"] = "degraded"
			}
		}

		c.JSON(code, status)
	}
}
