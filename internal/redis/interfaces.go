package redis

import (
	"context"
	"time"

	"academy/internal/repository"
)

// IdempotencyStoreInterface defines the interface for idempotent request replay.
type IdempotencyStoreInterface interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, resp *StoredResponse) error
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Ensure concrete types implement interfaces.
var (
	_ IdempotencyStoreInterface     = (*IdempotencyStore)(nil)
	_ repository.TrainingRepository = (*TrainingCache)(nil)
)
