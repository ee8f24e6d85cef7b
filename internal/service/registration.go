package service

import (
	"context"
	"fmt"

	"academy/internal/domain"
	"academy/internal/repository"
)

// RegistrationService exposes read access to materialized registrations.
type RegistrationService struct {
	registrationRepo repository.RegistrationRepository
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(registrationRepo repository.RegistrationRepository) *RegistrationService {
	return &RegistrationService{registrationRepo: registrationRepo}
}

// GetByTransaction returns the registration created for a transaction opened
// by the intent service, looked up by the transaction id it handed out.
// ErrRegistrationNotFound means the confirmation has not been processed yet.
func (s *RegistrationService) GetByTransaction(ctx context.Context, transactionID string) (*domain.Registration, error) {
	if transactionID == "" {
		return nil, ErrInvalidTransactionID
	}

	reg, err := s.registrationRepo.GetByExternalTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("lookup registration for %s: %w", transactionID, err)
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}

	return reg, nil
}
