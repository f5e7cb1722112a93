// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisCodePrefix   = "mcdiscord:code:"
	redisPlayerPrefix = "mcdiscord:player:"
)

// RedisCodeStore keeps pending linking codes in Redis so codes survive
// restarts and can be claimed from any process sharing the instance.
// Expiry is delegated to Redis key TTLs; atomicity of Claim rests on
// GETDEL.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (r *RedisCodeStore) Put(ctx context.Context, code string, player uuid.UUID, ttl time.Duration) error {
	playerKey := redisPlayerPrefix + player.String()
	old, err := r.client.Get(ctx, playerKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("look up previous linking code: %w", err)
	}

	pipe := r.client.TxPipeline()
	if old != "" {
		pipe.Del(ctx, redisCodePrefix+old)
	}
	pipe.Set(ctx, redisCodePrefix+code, player.String(), ttl)
	pipe.Set(ctx, playerKey, code, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store linking code: %w", err)
	}
	return nil
}

func (r *RedisCodeStore) Claim(ctx context.Context, code string) (uuid.UUID, bool, error) {
	value, err := r.client.GetDel(ctx, redisCodePrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("claim linking code: %w", err)
	}
	player, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupted linking code entry: %w", err)
	}
	r.client.Del(ctx, redisPlayerPrefix+player.String())
	return player, true, nil
}
