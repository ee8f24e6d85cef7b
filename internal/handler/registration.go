package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/domain"
	"academy/internal/service"
)

// RegistrationHandler handles HTTP requests for registrations.
type RegistrationHandler struct {
	registrationService *service.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrationService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// RegistrationResponse is the HTTP response for a registration.
type RegistrationResponse struct {
	ID                    string       `json:"id"`
	TrainingID            string       `json:"training_id"`
	ContactName           string       `json:"contact_name"`
	ContactEmail          string       `json:"contact_email"`
	AmountPaid            domain.Cents `json:"amount_paid"`
	PaymentStatus         string       `json:"payment_status"`
	ExternalTransactionID string       `json:"external_transaction_id"`
	ProviderPaymentID     string       `json:"provider_payment_id"`
	NeedsReview           bool         `json:"needs_review"`
	RegisteredAt          time.Time    `json:"registered_at"`
}

// GetByTransaction handles GET /v1/registrations/by-transaction/:transaction_id
func (h *RegistrationHandler) GetByTransaction(c *gin.Context) {
	reg, err := h.registrationService.GetByTransaction(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RegistrationResponse{
		ID:                    reg.ID,
		TrainingID:            reg.TrainingID,
		ContactName:           reg.Trainee.ContactName,
		ContactEmail:          reg.Trainee.ContactEmail,
		AmountPaid:            reg.AmountPaid,
		PaymentStatus:         string(reg.PaymentStatus),
		ExternalTransactionID: reg.ExternalTransactionID,
		ProviderPaymentID:     reg.ProviderPaymentID,
		NeedsReview:           reg.NeedsReview,
		RegisteredAt:          reg.RegisteredAt,
	})
}
