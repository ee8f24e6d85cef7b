package repository

import (
	"context"

	"academy/internal/domain"
)

// RegistrationRepository defines the persistence operations for registrations.
// Registrations are never deleted; only the review flag changes after insert.
type RegistrationRepository interface {
	// Create persists a new registration.
	// Returns ErrAlreadyExists if a registration with the same external
	// transaction id or provider payment id is already stored.
	Create(ctx context.Context, registration *domain.Registration) error

	// GetByExternalTransactionID retrieves a registration by the transaction id
	// handed out when the payment was opened.
	// Returns nil if no registration exists for the given id.
	GetByExternalTransactionID(ctx context.Context, transactionID string) (*domain.Registration, error)

	// FlagForReview marks a registration as needing manual follow-up.
	// Returns ErrNotFound if the registration does not exist.
	FlagForReview(ctx context.Context, id string) error

	// CountByTraining returns the number of confirmed registrations for a training.
	CountByTraining(ctx context.Context, trainingID string) (int, error)
}
