package app

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"academy/internal/config"
)

func TestKeyspace(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "cache:training", keyspace(redis.NewStringCmd(ctx, "get", "cache:training:tr-1")))
	assert.Equal(t, "lock:idempotency", keyspace(redis.NewStringCmd(ctx, "setnx", "lock:idempotency:POST:/v1/x:key")))
	assert.Equal(t, "redis", keyspace(redis.NewStringCmd(ctx, "ping")))
	assert.Equal(t, "redis", keyspace(redis.NewStringCmd(ctx, "get", "plain")))
}

func TestPingRedis_UnreachableServerKeepsClient(t *testing.T) {
	client := NewRedisClient(config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	defer client.Close()

	err := PingRedis(context.Background(), client)
	assert.Error(t, err)
	assert.NotNil(t, client)
}
