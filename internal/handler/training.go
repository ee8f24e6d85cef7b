package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academy/internal/domain"
	"academy/internal/service"
)

// TrainingHandler handles HTTP requests for training payments.
type TrainingHandler struct {
	intentService *service.IntentService
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(intentService *service.IntentService) *TrainingHandler {
	return &TrainingHandler{intentService: intentService}
}

// CreatePaymentIntentRequest is the HTTP request body for opening a payment.
type CreatePaymentIntentRequest struct {
	PaymentType         string `json:"payment_type"`
	ContactName         string `json:"contact_name"`
	ContactEmail        string `json:"contact_email"`
	Phone               string `json:"phone"`
	DepartureCity       string `json:"departure_city"`
	DeparturePostalCode string `json:"departure_postal_code"`
	DepartureCountry    string `json:"departure_country"`
	Carpooling          string `json:"carpooling"`
}

// PaymentIntentResponse is the HTTP response for an opened payment.
type PaymentIntentResponse struct {
	ClientSecret          string       `json:"client_secret"`
	TransactionID         string       `json:"transaction_id"`
	ProviderTransactionID string       `json:"provider_transaction_id"`
	Amount                domain.Cents `json:"amount"`
}

// AvailabilityResponse is the HTTP response for a training availability preview.
type AvailabilityResponse struct {
	TrainingID        string        `json:"training_id"`
	Status            string        `json:"status"`
	MaxParticipants   int           `json:"max_participants"`
	Confirmed         int           `json:"confirmed"`
	SeatsLeft         *int          `json:"seats_left"` // null when unlimited
	FullAmount        domain.Cents  `json:"full_amount"`
	DepositAmount     *domain.Cents `json:"deposit_amount"` // null when no deposit option
	RegistrationsOpen bool          `json:"registrations_open"`
}

// CreatePaymentIntent handles POST /v1/trainings/:id/payment-intents
func (h *TrainingHandler) CreatePaymentIntent(c *gin.Context) {
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.intentService.OpenTransaction(c.Request.Context(), service.OpenTransactionRequest{
		TrainingID:  c.Param("id"),
		PaymentType: domain.PaymentType(req.PaymentType),
		Trainee: domain.Trainee{
			ContactName:         req.ContactName,
			ContactEmail:        req.ContactEmail,
			Phone:               req.Phone,
			DepartureCity:       req.DepartureCity,
			DeparturePostalCode: req.DeparturePostalCode,
			DepartureCountry:    req.DepartureCountry,
			Carpooling:          req.Carpooling,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PaymentIntentResponse{
		ClientSecret:          result.ClientSecret,
		TransactionID:         result.TransactionID,
		ProviderTransactionID: result.ProviderTransactionID,
		Amount:                result.Amount,
	})
}

// GetAvailability handles GET /v1/trainings/:id/availability
func (h *TrainingHandler) GetAvailability(c *gin.Context) {
	a, err := h.intentService.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := AvailabilityResponse{
		TrainingID:        a.TrainingID,
		Status:            string(a.Status),
		MaxParticipants:   a.MaxParticipants,
		Confirmed:         a.Confirmed,
		FullAmount:        a.FullAmount,
		RegistrationsOpen: a.RegistrationsOpen,
	}
	if a.SeatsLeft >= 0 {
		seats := a.SeatsLeft
		resp.SeatsLeft = &seats
	}
	if a.DepositAmount > 0 {
		deposit := a.DepositAmount
		resp.DepositAmount = &deposit
	}

	respondJSON(c, http.StatusOK, resp)
}
