// Package mercadopago implements the payment provider boundary using the official SDK.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"academy/internal/domain"
)

// Payment type families known to Checkout Pro. Anything not allowed is excluded
// on the preference.
var paymentTypeFamilies = []string{
	"account_money",
	"atm",
	"bank_transfer",
	"credit_card",
	"debit_card",
	"digital_currency",
	"digital_wallet",
	"prepaid_card",
	"ticket",
}

// ErrInvalidTransactionID is returned when the id is not a Mercado Pago payment id.
var ErrInvalidTransactionID = errors.New("invalid mercado pago payment id")

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Options configures the adapter.
type Options struct {
	NotificationURL string
	// Sandbox returns the sandbox checkout link as client secret.
	Sandbox bool
}

// Adapter implements service.PaymentProvider using Mercado Pago Checkout Pro.
// Preferences are the opened transactions; payments are the confirmations.
type Adapter struct {
	preferences preferenceCreator
	payments    paymentGetter
	opts        Options
}

// NewAdapter creates a new Mercado Pago adapter for a single account.
func NewAdapter(accessToken string, opts Options) (*Adapter, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP config: %w", err)
	}

	return newAdapter(preference.NewClient(cfg), payment.NewClient(cfg), opts), nil
}

func newAdapter(preferences preferenceCreator, payments paymentGetter, opts Options) *Adapter {
	return &Adapter{
		preferences: preferences,
		payments:    payments,
		opts:        opts,
	}
}

// CreateTransaction creates a Checkout Pro preference carrying the metadata bag.
func (a *Adapter) CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.ProviderTransaction, error) {
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  req.Amount.Float(),
				CurrencyID: req.Currency,
			},
		},
		Payer: &preference.PayerRequest{
			Email: req.PayerEmail,
		},
		ExternalReference: req.Reference,
		NotificationURL:   a.opts.NotificationURL,
		Metadata:          req.Metadata.ToMap(),
	}

	if excluded := excludedPaymentTypes(req.PaymentTypes); len(excluded) > 0 {
		request.PaymentMethods = &preference.PaymentMethodsRequest{
			ExcludedPaymentTypes: excluded,
		}
	}

	result, err := a.preferences.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}

	secret := result.InitPoint
	if a.opts.Sandbox && result.SandboxInitPoint != "" {
		secret = result.SandboxInitPoint
	}

	return &domain.ProviderTransaction{
		ID:           result.ID,
		ClientSecret: secret,
		Status:       domain.TransactionStatusPending,
		Currency:     req.Currency,
		Metadata:     request.Metadata,
	}, nil
}

// GetTransaction retrieves a payment. SDK uses int for payment IDs.
// Ids that cannot name a payment and payments unknown to Mercado Pago
// are reported as domain.ErrTransactionNotFound.
func (a *Adapter) GetTransaction(ctx context.Context, id string) (*domain.ProviderTransaction, error) {
	paymentID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrTransactionNotFound, ErrInvalidTransactionID, id)
	}

	result, err := a.payments.Get(ctx, paymentID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: payment %d: %v", domain.ErrTransactionNotFound, paymentID, err)
		}
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}

	status := mapStatus(result.Status)

	tx := &domain.ProviderTransaction{
		ID:       strconv.Itoa(result.ID),
		Status:   status,
		Currency: result.CurrencyID,
		Metadata: result.Metadata,
	}
	if status == domain.TransactionStatusSucceeded {
		tx.Amount = domain.CentsFromFloat(result.TransactionAmount)
	}

	return tx, nil
}

// isNotFound reports whether the API answered 404 for the resource.
func isNotFound(err error) bool {
	var respErr *mperror.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// mapStatus translates a Mercado Pago payment status.
func mapStatus(status string) domain.TransactionStatus {
	switch status {
	case "approved":
		return domain.TransactionStatusSucceeded
	case "rejected":
		return domain.TransactionStatusFailed
	case "cancelled":
		return domain.TransactionStatusCancelled
	case "refunded", "charged_back":
		return domain.TransactionStatusRefunded
	default:
		// pending, in_process, authorized, in_mediation
		return domain.TransactionStatusPending
	}
}

// excludedPaymentTypes inverts an allow list into the exclusions Mercado Pago expects.
// An empty allow list excludes nothing.
func excludedPaymentTypes(allowed []string) []preference.ExcludedPaymentTypeRequest {
	if len(allowed) == 0 {
		return nil
	}

	keep := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		keep[t] = struct{}{}
	}

	var excluded []preference.ExcludedPaymentTypeRequest
	for _, family := range paymentTypeFamilies {
		if _, ok := keep[family]; !ok {
			excluded = append(excluded, preference.ExcludedPaymentTypeRequest{ID: family})
		}
	}
	return excluded
}
