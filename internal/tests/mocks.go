package tests

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"academy/internal/domain"
	"academy/internal/repository"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ──────────────────────────────────────────────
// MOCK TRAINING REPOSITORY
// ──────────────────────────────────────────────

// MockTrainingRepository is a mock implementation of TrainingRepository.
type MockTrainingRepository struct {
	mu        sync.RWMutex
	trainings map[string]*domain.Training

	GetByIDCallCount int32

	// Error injection
	GetByIDError error
}

// NewMockTrainingRepository creates a new mock training repository.
func NewMockTrainingRepository() *MockTrainingRepository {
	return &MockTrainingRepository{
		trainings: make(map[string]*domain.Training),
	}
}

// AddTraining adds a training to the mock catalog.
func (m *MockTrainingRepository) AddTraining(training *domain.Training) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainings[training.ID] = training
}

func (m *MockTrainingRepository) GetByID(ctx context.Context, id string) (*domain.Training, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	training, ok := m.trainings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *training
	return &copied, nil
}

// ──────────────────────────────────────────────
// MOCK REGISTRATION REPOSITORY
// ──────────────────────────────────────────────

// MockRegistrationRepository is a mock implementation of RegistrationRepository.
// Create enforces uniqueness of the external transaction id and of the provider
// payment id like the database does.
type MockRegistrationRepository struct {
	mu            sync.RWMutex
	registrations map[string]*domain.Registration // keyed by external transaction id
	extraCounts   map[string]int                  // confirmed seats not backed by a stored row

	CreateCallCount int32
	FlagCallCount   int32

	// Error injection
	CreateError error
	GetError    error
	CountError  error
	FlagError   error

	// SkipLookup makes GetByExternalTransactionID always miss, so that
	// only the unique constraint can catch duplicates.
	SkipLookup bool
}

// NewMockRegistrationRepository creates a new mock registration repository.
func NewMockRegistrationRepository() *MockRegistrationRepository {
	return &MockRegistrationRepository{
		registrations: make(map[string]*domain.Registration),
		extraCounts:   make(map[string]int),
	}
}

// SetConfirmed pretends n registrations already exist for a training.
func (m *MockRegistrationRepository) SetConfirmed(trainingID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extraCounts[trainingID] = n
}

// All returns every stored registration.
func (m *MockRegistrationRepository) All() []*domain.Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Registration, 0, len(m.registrations))
	for _, r := range m.registrations {
		out = append(out, r)
	}
	return out
}

func (m *MockRegistrationRepository) Create(ctx context.Context, registration *domain.Registration) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.registrations[registration.ExternalTransactionID]; exists {
		return repository.ErrAlreadyExists
	}
	for _, r := range m.registrations {
		if r.ProviderPaymentID == registration.ProviderPaymentID {
			return repository.ErrAlreadyExists
		}
	}
	copied := *registration
	m.registrations[registration.ExternalTransactionID] = &copied
	return nil
}

func (m *MockRegistrationRepository) GetByExternalTransactionID(ctx context.Context, transactionID string) (*domain.Registration, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	if m.SkipLookup {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.registrations[transactionID]
	if !ok {
		return nil, nil
	}
	copied := *reg
	return &copied, nil
}

func (m *MockRegistrationRepository) FlagForReview(ctx context.Context, id string) error {
	atomic.AddInt32(&m.FlagCallCount, 1)
	if m.FlagError != nil {
		return m.FlagError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registrations {
		if r.ID == id {
			r.NeedsReview = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockRegistrationRepository) CountByTraining(ctx context.Context, trainingID string) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.extraCounts[trainingID]
	for _, r := range m.registrations {
		if r.TrainingID == trainingID {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT PROVIDER
// ──────────────────────────────────────────────

// MockPaymentProvider is an in-memory payment provider.
type MockPaymentProvider struct {
	mu       sync.Mutex
	requests []domain.TransactionRequest
	payments map[string]*domain.ProviderTransaction
	nextID   int

	CreateCallCount int32
	GetCallCount    int32

	// Error injection
	CreateError error
	GetError    error

	// Block, when set, makes CreateTransaction wait for context cancellation.
	Block bool
}

// NewMockPaymentProvider creates a new mock provider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		payments: make(map[string]*domain.ProviderTransaction),
	}
}

// Requests returns the transaction requests received so far.
func (m *MockPaymentProvider) Requests() []domain.TransactionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TransactionRequest(nil), m.requests...)
}

// SetPayment registers the state GetTransaction returns for id.
func (m *MockPaymentProvider) SetPayment(tx *domain.ProviderTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[tx.ID] = tx
}

// Approve records a succeeded payment for the metadata of a prior request.
func (m *MockPaymentProvider) Approve(paymentID string, req domain.TransactionRequest) {
	m.SetPayment(&domain.ProviderTransaction{
		ID:       paymentID,
		Status:   domain.TransactionStatusSucceeded,
		Amount:   req.Amount,
		Currency: req.Currency,
		Metadata: req.Metadata.ToMap(),
	})
}

func (m *MockPaymentProvider) CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.ProviderTransaction, error) {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.requests = append(m.requests, req)
	id := fmt.Sprintf("pref-%d", m.nextID)
	return &domain.ProviderTransaction{
		ID:           id,
		ClientSecret: "https://checkout.example/" + id,
		Status:       domain.TransactionStatusPending,
		Currency:     req.Currency,
		Metadata:     req.Metadata.ToMap(),
	}, nil
}

func (m *MockPaymentProvider) GetTransaction(ctx context.Context, id string) (*domain.ProviderTransaction, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}
	copied := *tx
	return &copied, nil
}
