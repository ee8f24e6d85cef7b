package tests

import (
	"encoding/json"
	"strconv"
	"time"

	"academy/internal/domain"
	"academy/internal/mercadopago"
	"academy/internal/service"
)

// WebhookSecret is the secret shared with the signed deliveries built here.
const WebhookSecret = "test-webhook-secret"

// OpenTraining returns a training priced 450.00 with a 150.00 deposit and ten seats.
func OpenTraining(id string) *domain.Training {
	return &domain.Training{
		ID:              id,
		Title:           "Mountain first aid",
		Price:           domain.MustParseCents("450.00"),
		DepositAmount:   domain.MustParseCents("150.00"),
		MaxParticipants: 10,
		Status:          domain.TrainingStatusRegistrationsOpen,
	}
}

// SampleTrainee returns a complete set of trainee contact fields.
func SampleTrainee() domain.Trainee {
	return domain.Trainee{
		ContactName:         "Ada Lovelace",
		ContactEmail:        "ada@example.com",
		Phone:               "+33 6 12 34 56 78",
		DepartureCity:       "Lyon",
		DeparturePostalCode: "69001",
		DepartureCountry:    "FR",
		Carpooling:          "driver",
	}
}

// NewVerifier returns the verifier matching SignedDelivery.
func NewVerifier() *mercadopago.WebhookVerifier {
	return mercadopago.NewWebhookVerifier(WebhookSecret, 0)
}

// PaymentEventBody returns a notification body for a payment resource.
func PaymentEventBody(eventType, resourceID string) []byte {
	body, _ := json.Marshal(map[string]any{
		"type":   eventType,
		"action": eventType + ".updated",
		"data":   map[string]any{"id": resourceID},
	})
	return body
}

// SignedDelivery builds a correctly signed webhook delivery.
func SignedDelivery(eventType, resourceID, requestID string) service.WebhookDelivery {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return service.WebhookDelivery{
		Body:       PaymentEventBody(eventType, resourceID),
		Signature:  "ts=" + ts + ",v1=" + mercadopago.Sign([]byte(WebhookSecret), resourceID, requestID, ts),
		RequestID:  requestID,
		ResourceID: resourceID,
	}
}
