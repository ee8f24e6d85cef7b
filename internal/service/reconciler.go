package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy/internal/domain"
	"academy/internal/metrics"
	"academy/internal/repository"
)

// paymentEventType is the only notification type that can carry a payment confirmation.
const paymentEventType = "payment"

// Outcome describes how a webhook delivery was handled.
// Every outcome is acknowledged to the provider.
type Outcome string

const (
	OutcomeRegistered         Outcome = "registered"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeRepeatPayment      Outcome = "repeat_payment"
	OutcomeIgnored            Outcome = "ignored"
	OutcomeForeignTransaction Outcome = "foreign_transaction"
	OutcomeUnknownTraining    Outcome = "unknown_training"
	OutcomeInvalidMetadata    Outcome = "invalid_metadata"
	OutcomeInvalidAmount      Outcome = "invalid_amount"
)

// WebhookDelivery is one raw webhook request from the provider.
type WebhookDelivery struct {
	Body       []byte
	Signature  string // x-signature header
	RequestID  string // x-request-id header
	ResourceID string // data.id query parameter, may be empty
}

// webhookEnvelope is the notification body sent by the provider.
type webhookEnvelope struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Reconciler turns confirmed payments into registrations exactly once.
type Reconciler struct {
	trainingRepo     repository.TrainingRepository
	registrationRepo repository.RegistrationRepository
	provider         PaymentProvider
	verifier         SignatureVerifier
	log              *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	trainingRepo repository.TrainingRepository,
	registrationRepo repository.RegistrationRepository,
	provider PaymentProvider,
	verifier SignatureVerifier,
	log *slog.Logger,
) *Reconciler {
	return &Reconciler{
		trainingRepo:     trainingRepo,
		registrationRepo: registrationRepo,
		provider:         provider,
		verifier:         verifier,
		log:              log.With(slog.String("component", "reconciler")),
	}
}

// HandleDelivery authenticates a webhook delivery and materializes the
// registration if it confirms a payment.
//
// Errors matching IsTerminalWebhookError must be answered with a client
// error. Any other error is transient and must be answered so that the
// provider redelivers; redelivery is safe because materialization is
// idempotent on the transaction id.
func (r *Reconciler) HandleDelivery(ctx context.Context, d WebhookDelivery) (outcome Outcome, err error) {
	defer func() {
		label := string(outcome)
		switch {
		case errors.Is(err, ErrInvalidSignature):
			label = "invalid_signature"
		case errors.Is(err, ErrMalformedEvent):
			label = "malformed"
		case err != nil:
			label = "transient_error"
		}
		metrics.RecordWebhookDelivery(label)
	}()

	env, resourceID, err := parseEnvelope(d.Body, d.ResourceID)
	if err != nil {
		r.log.Warn("rejected malformed webhook",
			slog.String("request_id", d.RequestID),
			slog.Any("error", err),
		)
		return "", err
	}

	if err := r.verifier.Verify(d.Signature, d.RequestID, resourceID); err != nil {
		r.log.Warn("rejected webhook with invalid signature",
			slog.String("request_id", d.RequestID),
			slog.String("resource_id", resourceID),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if env.Type != paymentEventType {
		r.log.Info("ignoring webhook type",
			slog.String("type", env.Type),
			slog.String("action", env.Action),
			slog.String("resource_id", resourceID),
		)
		return OutcomeIgnored, nil
	}

	tx, err := r.provider.GetTransaction(ctx, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// Dashboard test notifications point at payments that never existed.
			r.log.Warn("ignoring notification for a transaction the provider does not know",
				slog.String("transaction_id", resourceID),
				slog.Any("error", err),
			)
			return OutcomeForeignTransaction, nil
		}
		r.log.Error("failed to fetch transaction",
			slog.String("transaction_id", resourceID),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("fetch transaction %s: %w", resourceID, err)
	}

	return r.reconcile(ctx, tx)
}

// reconcile applies a verified transaction state.
func (r *Reconciler) reconcile(ctx context.Context, tx *domain.ProviderTransaction) (Outcome, error) {
	log := r.log.With(slog.String("payment_id", tx.ID))

	if tx.Status != domain.TransactionStatusSucceeded {
		log.Info("ignoring transaction that has not succeeded", slog.String("status", string(tx.Status)))
		return OutcomeIgnored, nil
	}

	meta, err := domain.ParseTransactionMetadata(tx.Metadata)
	if err != nil {
		if errors.Is(err, domain.ErrMissingTrainingID) {
			log.Info("ignoring transaction not opened for a training")
			return OutcomeForeignTransaction, nil
		}
		// Redelivery cannot repair the bag; the payment needs a human.
		log.Error("succeeded transaction has unusable metadata", slog.Any("error", err))
		return OutcomeInvalidMetadata, nil
	}
	log = log.With(
		slog.String("transaction_id", meta.IntentID),
		slog.String("training_id", meta.TrainingID),
	)

	training, err := r.trainingRepo.GetByID(ctx, meta.TrainingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("ignoring transaction for unknown training")
			return OutcomeUnknownTraining, nil
		}
		return "", fmt.Errorf("load training %s: %w", meta.TrainingID, err)
	}

	existing, err := r.registrationRepo.GetByExternalTransactionID(ctx, meta.IntentID)
	if err != nil {
		return "", fmt.Errorf("lookup registration for %s: %w", meta.IntentID, err)
	}
	if existing != nil {
		return r.alreadyRegistered(ctx, log, existing, tx)
	}

	if tx.Amount <= 0 {
		log.Error("succeeded transaction has no captured amount", slog.String("amount", tx.Amount.String()))
		return OutcomeInvalidAmount, nil
	}

	confirmed, err := r.registrationRepo.CountByTraining(ctx, training.ID)
	if err != nil {
		return "", fmt.Errorf("count registrations for %s: %w", training.ID, err)
	}
	overbooked := !training.Unlimited() && confirmed >= training.MaxParticipants

	reg := &domain.Registration{
		ID:                    uuid.New().String(),
		TrainingID:            training.ID,
		Trainee:               meta.TraineeValue(),
		AmountPaid:            tx.Amount,
		PaymentAmount:         tx.Amount,
		PaymentStatus:         domain.PaymentStatusFor(meta.PaymentType, training),
		ExternalTransactionID: meta.IntentID,
		ProviderPaymentID:     tx.ID,
		NeedsReview:           overbooked,
		RegisteredAt:          time.Now().UTC(),
	}

	if err := r.registrationRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return r.lostInsertRace(ctx, log, meta.IntentID, tx)
		}
		return "", fmt.Errorf("create registration for %s: %w", meta.IntentID, err)
	}

	if overbooked {
		log.Warn("registration overbooked, flagged for review",
			slog.String("registration_id", reg.ID),
			slog.Int("confirmed_before", confirmed),
			slog.Int("max_participants", training.MaxParticipants),
		)
	}

	log.Info("registration created",
		slog.String("registration_id", reg.ID),
		slog.String("payment_status", string(reg.PaymentStatus)),
		slog.String("amount_paid", reg.AmountPaid.String()),
	)
	metrics.RecordRegistration(string(reg.PaymentStatus), overbooked)

	return OutcomeRegistered, nil
}

// alreadyRegistered handles a confirmation for an opened transaction that
// already has its registration. The same payment is a redelivery. Another
// payment means the trainee paid twice; the seat is not taken again and the
// existing registration goes to manual review.
func (r *Reconciler) alreadyRegistered(ctx context.Context, log *slog.Logger, existing *domain.Registration, tx *domain.ProviderTransaction) (Outcome, error) {
	log = log.With(slog.String("registration_id", existing.ID))

	if existing.ProviderPaymentID == tx.ID {
		log.Info("transaction already registered")
		return OutcomeDuplicate, nil
	}

	if !existing.NeedsReview {
		if err := r.registrationRepo.FlagForReview(ctx, existing.ID); err != nil {
			return "", fmt.Errorf("flag registration %s for review: %w", existing.ID, err)
		}
	}

	log.Warn("transaction paid more than once, registration flagged for review",
		slog.String("registered_payment_id", existing.ProviderPaymentID),
		slog.String("amount", tx.Amount.String()),
	)
	return OutcomeRepeatPayment, nil
}

// lostInsertRace resolves a unique violation on insert: another delivery
// created the registration between the lookup and the insert.
func (r *Reconciler) lostInsertRace(ctx context.Context, log *slog.Logger, intentID string, tx *domain.ProviderTransaction) (Outcome, error) {
	existing, err := r.registrationRepo.GetByExternalTransactionID(ctx, intentID)
	if err != nil {
		return "", fmt.Errorf("lookup registration for %s: %w", intentID, err)
	}
	if existing == nil {
		log.Info("transaction registered by a concurrent delivery")
		return OutcomeDuplicate, nil
	}
	return r.alreadyRegistered(ctx, log, existing, tx)
}

// parseEnvelope decodes the notification body and resolves the resource id.
// When the provider also passes the id as a query parameter, both must agree.
func parseEnvelope(body []byte, queryID string) (*webhookEnvelope, string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", fmt.Errorf("%w: empty body", ErrMalformedEvent)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	bodyID, err := rawID(env.Data.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: data.id: %v", ErrMalformedEvent, err)
	}

	queryID = strings.TrimSpace(queryID)
	switch {
	case bodyID == "" && queryID == "":
		return nil, "", fmt.Errorf("%w: missing data.id", ErrMalformedEvent)
	case bodyID != "" && queryID != "" && bodyID != queryID:
		return nil, "", fmt.Errorf("%w: data.id mismatch between body and query", ErrMalformedEvent)
	case bodyID == "":
		bodyID = queryID
	}

	if env.Type == "" {
		return nil, "", fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	return &env, bodyID, nil
}

// rawID accepts the resource id as either a JSON string or a JSON number.
func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
