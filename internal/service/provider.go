package service

import (
	"context"

	"academy/internal/domain"
)

// PaymentProvider is the boundary to the external payment provider.
type PaymentProvider interface {
	// CreateTransaction opens a provider transaction and returns its id and
	// the client-facing secret used to complete payment.
	CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.ProviderTransaction, error)

	// GetTransaction retrieves a transaction, including its metadata bag.
	GetTransaction(ctx context.Context, id string) (*domain.ProviderTransaction, error)
}

// SignatureVerifier authenticates webhook deliveries against a server-held secret.
type SignatureVerifier interface {
	// Verify returns nil only when the signature header is valid for the
	// given request id and resource id.
	Verify(signatureHeader, requestID, resourceID string) error
}
