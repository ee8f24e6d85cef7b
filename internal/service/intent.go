package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"academy/internal/domain"
	"academy/internal/metrics"
	"academy/internal/repository"
)

const defaultProviderTimeout = 10 * time.Second

// IntentConfig holds the provider settings used when opening transactions.
type IntentConfig struct {
	Currency     string
	PaymentTypes []string
	Timeout      time.Duration
}

// IntentService opens payment transactions for prospective trainees.
// It never writes local state; the registration only exists once the
// provider confirms the payment.
type IntentService struct {
	trainingRepo     repository.TrainingRepository
	registrationRepo repository.RegistrationRepository
	provider         PaymentProvider
	cfg              IntentConfig
	log              *slog.Logger
}

// NewIntentService creates a new IntentService.
func NewIntentService(
	trainingRepo repository.TrainingRepository,
	registrationRepo repository.RegistrationRepository,
	provider PaymentProvider,
	cfg IntentConfig,
	log *slog.Logger,
) *IntentService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProviderTimeout
	}
	return &IntentService{
		trainingRepo:     trainingRepo,
		registrationRepo: registrationRepo,
		provider:         provider,
		cfg:              cfg,
		log:              log.With(slog.String("component", "intent")),
	}
}

// OpenTransactionRequest contains the parameters for opening a payment transaction.
type OpenTransactionRequest struct {
	TrainingID  string
	PaymentType domain.PaymentType
	Trainee     domain.Trainee
}

// OpenTransactionResult is returned to the client to complete payment with the provider.
// TransactionID is the id the resulting registration is stored under.
type OpenTransactionResult struct {
	ClientSecret          string
	TransactionID         string
	ProviderTransactionID string
	Amount                domain.Cents
}

// OpenTransaction checks capacity, computes the amount and creates a provider
// transaction carrying everything needed to rebuild the registration later.
func (s *IntentService) OpenTransaction(ctx context.Context, req OpenTransactionRequest) (*OpenTransactionResult, error) {
	if req.TrainingID == "" {
		return nil, ErrInvalidTrainingID
	}

	if !req.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentType, req.PaymentType)
	}

	training, confirmed, err := s.loadTraining(ctx, req.TrainingID)
	if err != nil {
		return nil, err
	}

	if err := CheckCapacity(training, confirmed); err != nil {
		s.log.Info("payment intent refused",
			slog.String("training_id", training.ID),
			slog.Int("confirmed", confirmed),
			slog.Any("error", err),
		)
		metrics.RecordPaymentIntent("refused")
		return nil, err
	}

	amount, err := PayableAmount(training, req.PaymentType)
	if err != nil {
		s.log.Error("training has no payable amount",
			slog.String("training_id", training.ID),
			slog.String("payment_type", string(req.PaymentType)),
			slog.Any("error", err),
		)
		metrics.RecordPaymentIntent("refused")
		return nil, err
	}

	intentID := uuid.New().String()
	meta, err := domain.NewTransactionMetadata(intentID, training.ID, req.PaymentType, req.Trainee)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrainee, err)
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	tx, err := s.provider.CreateTransaction(providerCtx, domain.TransactionRequest{
		Title:        training.Title,
		Amount:       amount,
		Currency:     s.cfg.Currency,
		PaymentTypes: s.cfg.PaymentTypes,
		PayerEmail:   req.Trainee.ContactEmail,
		Reference:    intentID,
		Metadata:     meta,
	})
	if err != nil {
		timedOut := errors.Is(providerCtx.Err(), context.DeadlineExceeded)
		s.log.Error("failed to open provider transaction",
			slog.String("training_id", training.ID),
			slog.String("transaction_id", intentID),
			slog.Bool("timed_out", timedOut),
			slog.Any("error", err),
		)
		metrics.RecordPaymentIntent("provider_error")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.log.Info("payment intent opened",
		slog.String("training_id", training.ID),
		slog.String("transaction_id", intentID),
		slog.String("provider_transaction_id", tx.ID),
		slog.String("payment_type", string(req.PaymentType)),
		slog.String("amount", amount.String()),
	)
	metrics.RecordPaymentIntent("opened")

	return &OpenTransactionResult{
		ClientSecret:          tx.ClientSecret,
		TransactionID:         intentID,
		ProviderTransactionID: tx.ID,
		Amount:                amount,
	}, nil
}

// Availability summarizes what a trainee would pay and whether a seat is left.
type Availability struct {
	TrainingID        string
	Status            domain.TrainingStatus
	MaxParticipants   int
	Confirmed         int
	SeatsLeft         int // -1 when unlimited
	FullAmount        domain.Cents
	DepositAmount     domain.Cents // 0 when no deposit option
	RegistrationsOpen bool
}

// Availability returns the capacity and amount preview for a training.
func (s *IntentService) Availability(ctx context.Context, trainingID string) (*Availability, error) {
	if trainingID == "" {
		return nil, ErrInvalidTrainingID
	}

	training, confirmed, err := s.loadTraining(ctx, trainingID)
	if err != nil {
		return nil, err
	}

	a := &Availability{
		TrainingID:        training.ID,
		Status:            training.Status,
		MaxParticipants:   training.MaxParticipants,
		Confirmed:         confirmed,
		SeatsLeft:         SeatsLeft(training, confirmed),
		FullAmount:        training.Price,
		RegistrationsOpen: CheckCapacity(training, confirmed) == nil,
	}
	if training.HasDeposit() {
		a.DepositAmount = training.DepositAmount
	}

	return a, nil
}

// loadTraining fetches the training and its confirmed registration count.
func (s *IntentService) loadTraining(ctx context.Context, trainingID string) (*domain.Training, int, error) {
	training, err := s.trainingRepo.GetByID(ctx, trainingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrTrainingNotFound, trainingID)
		}
		return nil, 0, fmt.Errorf("load training %s: %w", trainingID, err)
	}

	confirmed, err := s.registrationRepo.CountByTraining(ctx, training.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("count registrations for %s: %w", training.ID, err)
	}

	return training, confirmed, nil
}
