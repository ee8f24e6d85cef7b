package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"academy/internal/config"
)

func TestRouter_HealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterDeps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthWithRedisDownIsDegradedNotFailing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	redisClient := NewRedisClient(config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	defer redisClient.Close()
	router := NewRouter(RouterDeps{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		RedisClient: redisClient,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestRouter_RegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterDeps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /v1/trainings/:id/payment-intents",
		"GET /v1/trainings/:id/availability",
		"POST /v1/webhooks/payments",
		"GET /v1/registrations/by-transaction/:transaction_id",
	} {
		assert.True(t, routes[want], want)
	}
}
