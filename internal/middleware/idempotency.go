package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/redis"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	replayedHeader     = "Idempotent-Replayed"
	idempotencyLockTTL = 30 * time.Second
)

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the recorded response when a client retries a
// request with the same Idempotency-Key. Keys are scoped to the route.
// Reusing a key with a different body is rejected, as is a retry that
// arrives while the first request is still in flight.
func IdempotencyMiddleware(store redis.IdempotencyStoreInterface, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		scopedKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		fingerprint := fingerprintOf(body)

		cached, err := store.Get(ctx, scopedKey)
		if err != nil {
			// Redis error - proceed without idempotency.
			log.Warn("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			c.Next()
			return
		}

		if cached != nil {
			if cached.Fingerprint != fingerprint {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency key reused with a different request"})
				return
			}
			for k, v := range cached.Headers {
				for _, val := range v {
					c.Header(k, val)
				}
			}
			c.Header(replayedHeader, "true")
			c.Data(cached.StatusCode, "application/json", cached.Body)
			c.Abort()
			return
		}

		acquired, err := store.Acquire(ctx, scopedKey, idempotencyLockTTL)
		if err != nil {
			log.Warn("idempotency lock failed", slog.String("key", key), slog.Any("error", err))
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
			return
		}
		defer func() {
			if err := store.Release(ctx, scopedKey); err != nil {
				log.Warn("idempotency unlock failed", slog.String("key", key), slog.Any("error", err))
			}
		}()

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not recorded so that the client can retry them.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			response := redis.StoredResponse{
				StatusCode:  status,
				Body:        w.body.Bytes(),
				Headers:     extractResponseHeaders(c),
				Fingerprint: fingerprint,
			}
			if err := store.Save(ctx, scopedKey, &response); err != nil {
				log.Warn("idempotency save failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	// Only cache Content-Type header.
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
