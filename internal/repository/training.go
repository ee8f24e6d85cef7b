package repository

import (
	"context"

	"academy/internal/domain"
)

// TrainingRepository gives read access to the training catalog.
type TrainingRepository interface {
	// GetByID retrieves a training definition by ID.
	// Returns ErrNotFound if the training does not exist.
	GetByID(ctx context.Context, id string) (*domain.Training, error)
}
