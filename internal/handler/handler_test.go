package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy/internal/domain"
	"academy/internal/handler"
	"academy/internal/service"
	"academy/internal/tests"
)

type env struct {
	router    *gin.Engine
	trainings *tests.MockTrainingRepository
	regs      *tests.MockRegistrationRepository
	provider  *tests.MockPaymentProvider
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		trainings: tests.NewMockTrainingRepository(),
		regs:      tests.NewMockRegistrationRepository(),
		provider:  tests.NewMockPaymentProvider(),
	}
	e.trainings.AddTraining(tests.OpenTraining("tr-1"))

	log := tests.DiscardLogger()
	intents := service.NewIntentService(e.trainings, e.regs, e.provider, service.IntentConfig{Currency: "EUR", Timeout: time.Second}, log)
	reconciler := service.NewReconciler(e.trainings, e.regs, e.provider, tests.NewVerifier(), log)

	trainingHandler := handler.NewTrainingHandler(intents)
	webhookHandler := handler.NewWebhookHandler(reconciler, log)
	registrationHandler := handler.NewRegistrationHandler(service.NewRegistrationService(e.regs))

	e.router = gin.New()
	v1 := e.router.Group("/v1")
	v1.POST("/trainings/:id/payment-intents", trainingHandler.CreatePaymentIntent)
	v1.GET("/trainings/:id/availability", trainingHandler.GetAvailability)
	v1.POST("/webhooks/payments", webhookHandler.HandlePayment)
	v1.GET("/registrations/by-transaction/:transaction_id", registrationHandler.GetByTransaction)

	return e
}

func (e *env) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func intentBody(paymentType string) []byte {
	body, _ := json.Marshal(map[string]string{
		"payment_type":  paymentType,
		"contact_name":  "Ada Lovelace",
		"contact_email": "ada@example.com",
	})
	return body
}

func TestCreatePaymentIntent_Created(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodPost, "/v1/trainings/tr-1/payment-intents", intentBody("deposit"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "150.00", resp["amount"])
	assert.NotEmpty(t, resp["client_secret"])
	assert.NotEmpty(t, resp["transaction_id"])
	assert.Equal(t, "pref-1", resp["provider_transaction_id"])
}

func TestCreatePaymentIntent_ErrorStatuses(t *testing.T) {
	testCases := []struct {
		name   string
		setup  func(e *env)
		path   string
		body   []byte
		status int
	}{
		{"unknown training", nil, "/v1/trainings/nope/payment-intents", intentBody("full"), http.StatusNotFound},
		{"closed", func(e *env) {
			tr := tests.OpenTraining("tr-1")
			tr.Status = domain.TrainingStatusCompleted
			e.trainings.AddTraining(tr)
		}, "/v1/trainings/tr-1/payment-intents", intentBody("full"), http.StatusGone},
		{"full", func(e *env) { e.regs.SetConfirmed("tr-1", 10) }, "/v1/trainings/tr-1/payment-intents", intentBody("full"), http.StatusUnprocessableEntity},
		{"bad json", nil, "/v1/trainings/tr-1/payment-intents", []byte(`{"payment_type":`), http.StatusBadRequest},
		{"bad payment type", nil, "/v1/trainings/tr-1/payment-intents", intentBody("monthly"), http.StatusBadRequest},
		{"missing payment type", nil, "/v1/trainings/tr-1/payment-intents", intentBody(""), http.StatusBadRequest},
		{"provider down", func(e *env) { e.provider.CreateError = assert.AnError }, "/v1/trainings/tr-1/payment-intents", intentBody("full"), http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := setup(t)
			if tc.setup != nil {
				tc.setup(e)
			}
			w := e.do(http.MethodPost, tc.path, tc.body, nil)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestGetAvailability(t *testing.T) {
	e := setup(t)
	e.regs.SetConfirmed("tr-1", 4)

	w := e.do(http.MethodGet, "/v1/trainings/tr-1/availability", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 6, resp["seats_left"])
	assert.Equal(t, "450.00", resp["full_amount"])
	assert.Equal(t, "150.00", resp["deposit_amount"])
	assert.Equal(t, true, resp["registrations_open"])
}

func (e *env) deliver(t *testing.T, paymentID, requestID string) string {
	t.Helper()
	d := tests.SignedDelivery("payment", paymentID, requestID)
	w := e.do(http.MethodPost, "/v1/webhooks/payments?type=payment&data.id="+paymentID, d.Body, map[string]string{
		"x-signature":  d.Signature,
		"x-request-id": d.RequestID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["status"]
}

func TestWebhook_RegistersThenLookup(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodPost, "/v1/trainings/tr-1/payment-intents", intentBody("full"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var intent map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	transactionID, _ := intent["transaction_id"].(string)
	require.NotEmpty(t, transactionID)

	e.provider.Approve("1001", e.provider.Requests()[0])

	lookup := "/v1/registrations/by-transaction/" + transactionID
	w = e.do(http.MethodGet, lookup, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, "registered", e.deliver(t, "1001", "req-1"))
	assert.Equal(t, "duplicate", e.deliver(t, "1001", "req-1"))

	w = e.do(http.MethodGet, lookup, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "paid", resp["payment_status"])
	assert.Equal(t, "450.00", resp["amount_paid"])
	assert.Equal(t, transactionID, resp["external_transaction_id"])
	assert.Equal(t, "1001", resp["provider_payment_id"])
	assert.Equal(t, false, resp["needs_review"])
}

func TestWebhook_SecondPaymentOnSameIntentFlagsRegistration(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodPost, "/v1/trainings/tr-1/payment-intents", intentBody("full"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var intent map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))

	req := e.provider.Requests()[0]
	e.provider.Approve("1001", req)
	e.provider.Approve("1002", req)

	assert.Equal(t, "registered", e.deliver(t, "1001", "req-1"))
	assert.Equal(t, "repeat_payment", e.deliver(t, "1002", "req-2"))
	assert.Len(t, e.regs.All(), 1)

	w = e.do(http.MethodGet, "/v1/registrations/by-transaction/"+intent["transaction_id"].(string), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1001", resp["provider_payment_id"])
	assert.Equal(t, true, resp["needs_review"])
}

func TestWebhook_UnknownPaymentIsAcknowledged(t *testing.T) {
	e := setup(t)

	assert.Equal(t, "foreign_transaction", e.deliver(t, "123456", "req-1"))
	assert.Empty(t, e.regs.All())
}

func TestWebhook_ErrorStatuses(t *testing.T) {
	e := setup(t)

	d := tests.SignedDelivery("payment", "1001", "req-1")

	w := e.do(http.MethodPost, "/v1/webhooks/payments", d.Body, map[string]string{
		"x-signature":  "ts=1,v1=bad",
		"x-request-id": d.RequestID,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/v1/webhooks/payments", []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.provider.GetError = assert.AnError
	w = e.do(http.MethodPost, "/v1/webhooks/payments", d.Body, map[string]string{
		"x-signature":  d.Signature,
		"x-request-id": d.RequestID,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestGetByTransaction_StorageError(t *testing.T) {
	e := setup(t)
	e.regs.GetError = context.DeadlineExceeded

	w := e.do(http.MethodGet, "/v1/registrations/by-transaction/1001", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
