package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"academy/internal/domain"
	"academy/internal/repository"
)

// TrainingCacheTTL bounds how stale a catalog read can be.
const TrainingCacheTTL = 30 * time.Second

const trainingCachePrefix = "cache:training:"

// cachedTraining represents a cached training entity.
type cachedTraining struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Price           domain.Cents `json:"price"`
	DepositAmount   domain.Cents `json:"deposit_amount"`
	MaxParticipants int          `json:"max_participants"`
	Status          string       `json:"status"`
}

// TrainingCache is a read-through cache in front of the training catalog.
// Redis failures fall back to the catalog.
type TrainingCache struct {
	client redis.Cmdable
	next   repository.TrainingRepository
	ttl    time.Duration
	log    *slog.Logger
}

// NewTrainingCache wraps the catalog reader with a Redis cache.
func NewTrainingCache(client redis.Cmdable, next repository.TrainingRepository, log *slog.Logger) *TrainingCache {
	return &TrainingCache{
		client: client,
		next:   next,
		ttl:    TrainingCacheTTL,
		log:    log.With(slog.String("component", "training_cache")),
	}
}

// GetByID returns the training from cache, loading it from the catalog on a miss.
func (c *TrainingCache) GetByID(ctx context.Context, id string) (*domain.Training, error) {
	cached, err := c.get(ctx, id)
	if err != nil {
		c.log.Warn("training cache read failed", slog.String("training_id", id), slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	training, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, training); err != nil {
		c.log.Warn("training cache write failed", slog.String("training_id", id), slog.Any("error", err))
	}

	return training, nil
}

func (c *TrainingCache) get(ctx context.Context, id string) (*domain.Training, error) {
	data, err := c.client.Get(ctx, trainingCachePrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var t cachedTraining
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &domain.Training{
		ID:              t.ID,
		Title:           t.Title,
		Price:           t.Price,
		DepositAmount:   t.DepositAmount,
		MaxParticipants: t.MaxParticipants,
		Status:          domain.TrainingStatus(t.Status),
	}, nil
}

func (c *TrainingCache) set(ctx context.Context, training *domain.Training) error {
	data, err := json.Marshal(cachedTraining{
		ID:              training.ID,
		Title:           training.Title,
		Price:           training.Price,
		DepositAmount:   training.DepositAmount,
		MaxParticipants: training.MaxParticipants,
		Status:          string(training.Status),
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, trainingCachePrefix+training.ID, data, c.ttl).Err()
}
