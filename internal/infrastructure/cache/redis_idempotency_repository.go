package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sangkips/receipts-api/internal/config"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
)

const defaultKeyPrefix = "receipts:idempotency:"

// RedisIdempotencyRepository implements IdempotencyRepository on Redis.
// Entries expire through the key TTL, so several API instances can share
// replay state without a cleanup job.
type RedisIdempotencyRepository struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisIdempotencyRepository creates a repository over an existing client
func NewRedisIdempotencyRepository(client *redis.Client, keyPrefix string, now func() time.Time) *RedisIdempotencyRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &RedisIdempotencyRepository{
		client:    client,
		keyPrefix: keyPrefix,
		now:       now,
	}
}

func (r *RedisIdempotencyRepository) redisKey(key string, userID uuid.UUID) string {
	return r.keyPrefix + userID.String() + ":" + key
}

func (r *RedisIdempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	raw, err := r.client.Get(ctx, r.redisKey(key, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var ikey entity.IdempotencyKey
	if err := json.Unmarshal(raw, &ikey); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency key: %w", err)
	}
	return &ikey, nil
}

// Create stores the key with SETNX so the first response recorded wins
func (r *RedisIdempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	ttl := ikey.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = r.now()
	}

	raw, err := json.Marshal(ikey)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency key: %w", err)
	}
	if err := r.client.SetNX(ctx, r.redisKey(ikey.Key, ikey.UserID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own
func (r *RedisIdempotencyRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	return nil
}

// Close closes the Redis client
func (r *RedisIdempotencyRepository) Close() error {
	return r.client.Close()
}

var _ domainRepo.IdempotencyRepository = (*RedisIdempotencyRepository)(nil)
