package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// RedisStore implements Store using Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // Session TTL (time to live)
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// sessionKey generates Redis key for a call
func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("call:%s", id)
}

// Create implements Store
func (r *RedisStore) Create(ctx context.Context, call *models.CallState) error {
	now := time.Now()
	call.CreatedAt = now
	call.UpdatedAt = now
	call.Version = 1

	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.sessionKey(call.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save call to Redis: %w", err)
	}
	if !created {
		return ErrAlreadyExists
	}
	return nil
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, id string) (*models.CallState, error) {
	key := r.sessionKey(id)

	data, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load call from Redis: %w", err)
	}

	var call models.CallState
	if err := json.Unmarshal([]byte(data), &call); err != nil {
		return nil, fmt.Errorf("failed to parse call data: %w", err)
	}

	// Refresh TTL on read, a live call keeps its state
	_ = r.client.Expire(ctx, key, r.ttl).Err()

	return &call, nil
}

// Update implements Store with WATCH/MULTI/EXEC optimistic locking
func (r *RedisStore) Update(ctx context.Context, call *models.CallState) error {
	key := r.sessionKey(call.ID)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored models.CallState
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return fmt.Errorf("failed to parse call data: %w", err)
		}
		if stored.Version != call.Version {
			return ErrVersionConflict
		}

		next := *call
		next.Version++
		next.UpdatedAt = time.Now()
		data, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("failed to marshal call: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		call.Version = next.Version
		call.UpdatedAt = next.UpdatedAt
		return nil
	}, key)
}

// Delete implements Store
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection is alive
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
