package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"academy/internal/service"
)

// maxWebhookBody caps the notification body size.
const maxWebhookBody = 1 << 20

// WebhookHandler handles payment provider notifications.
type WebhookHandler struct {
	reconciler *service.Reconciler
	log        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconciler *service.Reconciler, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		log:        log.With(slog.String("component", "webhook_handler")),
	}
}

// WebhookResponse acknowledges a processed delivery.
type WebhookResponse struct {
	Status string `json:"status"`
}

// HandlePayment handles POST /v1/webhooks/payments
// The delivery is acknowledged only after it has been fully processed.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable request body"})
		return
	}

	outcome, err := h.reconciler.HandleDelivery(c.Request.Context(), service.WebhookDelivery{
		Body:       body,
		Signature:  c.GetHeader("x-signature"),
		RequestID:  c.GetHeader("x-request-id"),
		ResourceID: c.Query("data.id"),
	})
	if err != nil {
		if !service.IsTerminalWebhookError(err) {
			h.log.Error("webhook processing failed, provider will retry",
				slog.String("request_id", c.GetHeader("x-request-id")),
				slog.Any("error", err),
			)
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WebhookResponse{Status: string(outcome)})
}
