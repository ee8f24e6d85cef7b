package postgres

import (
	"context"
	"database/sql"
	"errors"

	"academy/internal/domain"
	"academy/internal/repository"
)

// TrainingRepository reads training definitions from the catalog tables.
type TrainingRepository struct {
	q Querier
}

// NewTrainingRepository creates a new PostgreSQL training repository.
func NewTrainingRepository(db *sql.DB) *TrainingRepository {
	return &TrainingRepository{q: db}
}

// GetByID retrieves a training by ID.
func (r *TrainingRepository) GetByID(ctx context.Context, id string) (*domain.Training, error) {
	query := `
		SELECT id, title, price, deposit_amount, max_participants, status
		FROM trainings WHERE id = $1
	`

	var training domain.Training
	var maxParticipants sql.NullInt64

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&training.ID,
		&training.Title,
		&training.Price,
		&training.DepositAmount,
		&maxParticipants,
		&training.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if maxParticipants.Valid {
		training.MaxParticipants = int(maxParticipants.Int64)
	}

	return &training, nil
}

// Ensure TrainingRepository implements repository.TrainingRepository.
var _ repository.TrainingRepository = (*TrainingRepository)(nil)
