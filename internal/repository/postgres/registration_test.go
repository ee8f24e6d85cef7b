package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy/internal/domain"
	"academy/internal/repository"
)

var registrationColumns = []string{
	"id", "training_id", "contact_name", "contact_email", "phone",
	"departure_city", "departure_postal_code", "departure_country", "carpooling",
	"amount_paid", "payment_amount", "payment_status", "external_transaction_id",
	"provider_payment_id", "needs_review", "registered_at",
}

func setupMock(t *testing.T) (*RegistrationRepository, *TrainingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRegistrationRepository(db), NewTrainingRepository(db), mock
}

func sampleRegistration() *domain.Registration {
	return &domain.Registration{
		ID:         "reg-1",
		TrainingID: "tr-1",
		Trainee: domain.Trainee{
			ContactName:  "Ada Lovelace",
			ContactEmail: "ada@example.com",
			Phone:        "+33 6 12 34 56 78",
		},
		AmountPaid:            domain.MustParseCents("150.00"),
		PaymentAmount:         domain.MustParseCents("150.00"),
		PaymentStatus:         domain.RegistrationPaymentPartial,
		ExternalTransactionID: "int-1",
		ProviderPaymentID:     "1001",
		RegisteredAt:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRegistrationRepository_Create(t *testing.T) {
	repo, _, mock := setupMock(t)
	reg := sampleRegistration()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WithArgs(
			"reg-1", "tr-1", "Ada Lovelace", "ada@example.com", "+33 6 12 34 56 78",
			"", "", "", "",
			"150.00", "150.00", "partial", "int-1",
			"1001", false, reg.RegisteredAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), reg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_CreateDuplicate(t *testing.T) {
	repo, _, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "registrations_external_transaction_id_key"})

	err := repo.Create(context.Background(), sampleRegistration())
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestRegistrationRepository_CreateSamePaymentTwice(t *testing.T) {
	repo, _, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "registrations_provider_payment_id_key"})

	err := repo.Create(context.Background(), sampleRegistration())
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestRegistrationRepository_CreateOtherUniqueViolation(t *testing.T) {
	repo, _, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "registrations_pkey"})

	err := repo.Create(context.Background(), sampleRegistration())
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestRegistrationRepository_GetByExternalTransactionID(t *testing.T) {
	repo, _, mock := setupMock(t)
	registeredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations WHERE external_transaction_id = $1")).
		WithArgs("int-1").
		WillReturnRows(sqlmock.NewRows(registrationColumns).AddRow(
			"reg-1", "tr-1", "Ada Lovelace", "ada@example.com", "",
			"Lyon", "69001", "FR", "driver",
			[]byte("150.00"), []byte("150.00"), "partial", "int-1",
			"1001", true, registeredAt,
		))

	reg, err := repo.GetByExternalTransactionID(context.Background(), "int-1")
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, domain.Cents(15000), reg.AmountPaid)
	assert.Equal(t, domain.RegistrationPaymentPartial, reg.PaymentStatus)
	assert.Equal(t, "69001", reg.Trainee.DeparturePostalCode)
	assert.Equal(t, "1001", reg.ProviderPaymentID)
	assert.True(t, reg.NeedsReview)
	assert.Equal(t, registeredAt, reg.RegisteredAt)
}

func TestRegistrationRepository_GetMissing(t *testing.T) {
	repo, _, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations WHERE external_transaction_id = $1")).
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows(registrationColumns))

	reg, err := repo.GetByExternalTransactionID(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestRegistrationRepository_FlagForReview(t *testing.T) {
	repo, _, mock := setupMock(t)
	query := regexp.QuoteMeta("UPDATE registrations SET needs_review = TRUE WHERE id = $1")

	mock.ExpectExec(query).WithArgs("reg-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.FlagForReview(context.Background(), "reg-1"))

	mock.ExpectExec(query).WithArgs("reg-404").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.FlagForReview(context.Background(), "reg-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_CountByTraining(t *testing.T) {
	repo, _, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registrations WHERE training_id = $1")).
		WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	n, err := repo.CountByTraining(context.Background(), "tr-1")
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestTrainingRepository_GetByID(t *testing.T) {
	_, repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM trainings WHERE id = $1")).
		WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "deposit_amount", "max_participants", "status"}).
			AddRow("tr-1", "Mountain first aid", []byte("450.00"), []byte("150.00"), nil, "registrations_open"))

	training, err := repo.GetByID(context.Background(), "tr-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(45000), training.Price)
	assert.Equal(t, domain.Cents(15000), training.DepositAmount)
	assert.True(t, training.Unlimited())
	assert.True(t, training.AcceptsRegistrations())
}

func TestTrainingRepository_GetByIDNotFound(t *testing.T) {
	_, repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM trainings WHERE id = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "deposit_amount", "max_participants", "status"}))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}, ""))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("23505"), ""))
}
