package postgres

import (
	"context"
	"database/sql"
	"errors"

	"academy/internal/domain"
	"academy/internal/repository"
)

// Unique constraints guarding exactly-once materialization.
const (
	registrationsTransactionKey = "registrations_external_transaction_id_key"
	registrationsPaymentKey     = "registrations_provider_payment_id_key"
)

// RegistrationRepository is a PostgreSQL implementation of repository.RegistrationRepository.
type RegistrationRepository struct {
	q Querier
}

// NewRegistrationRepository creates a new PostgreSQL registration repository.
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{q: db}
}

// Create persists a new registration in a single statement.
func (r *RegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (
			id, training_id, contact_name, contact_email, phone,
			departure_city, departure_postal_code, departure_country, carpooling,
			amount_paid, payment_amount, payment_status, external_transaction_id,
			provider_payment_id, needs_review, registered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		reg.ID,
		reg.TrainingID,
		reg.Trainee.ContactName,
		reg.Trainee.ContactEmail,
		reg.Trainee.Phone,
		reg.Trainee.DepartureCity,
		reg.Trainee.DeparturePostalCode,
		reg.Trainee.DepartureCountry,
		reg.Trainee.Carpooling,
		reg.AmountPaid,
		reg.PaymentAmount,
		reg.PaymentStatus,
		reg.ExternalTransactionID,
		reg.ProviderPaymentID,
		reg.NeedsReview,
		reg.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err, registrationsTransactionKey) || isUniqueViolation(err, registrationsPaymentKey) {
			return repository.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByExternalTransactionID retrieves a registration by opened transaction id.
// Returns nil if no registration exists with the given id.
func (r *RegistrationRepository) GetByExternalTransactionID(ctx context.Context, transactionID string) (*domain.Registration, error) {
	query := `
		SELECT id, training_id, contact_name, contact_email, phone,
			departure_city, departure_postal_code, departure_country, carpooling,
			amount_paid, payment_amount, payment_status, external_transaction_id,
			provider_payment_id, needs_review, registered_at
		FROM registrations WHERE external_transaction_id = $1
	`

	var reg domain.Registration
	err := r.q.QueryRowContext(ctx, query, transactionID).Scan(
		&reg.ID,
		&reg.TrainingID,
		&reg.Trainee.ContactName,
		&reg.Trainee.ContactEmail,
		&reg.Trainee.Phone,
		&reg.Trainee.DepartureCity,
		&reg.Trainee.DeparturePostalCode,
		&reg.Trainee.DepartureCountry,
		&reg.Trainee.Carpooling,
		&reg.AmountPaid,
		&reg.PaymentAmount,
		&reg.PaymentStatus,
		&reg.ExternalTransactionID,
		&reg.ProviderPaymentID,
		&reg.NeedsReview,
		&reg.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &reg, nil
}

// FlagForReview marks a registration as needing manual follow-up.
func (r *RegistrationRepository) FlagForReview(ctx context.Context, id string) error {
	query := `UPDATE registrations SET needs_review = TRUE WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountByTraining returns the number of confirmed registrations for a training.
func (r *RegistrationRepository) CountByTraining(ctx context.Context, trainingID string) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE training_id = $1`

	var count int
	if err := r.q.QueryRowContext(ctx, query, trainingID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ensure RegistrationRepository implements repository.RegistrationRepository.
var _ repository.RegistrationRepository = (*RegistrationRepository)(nil)
