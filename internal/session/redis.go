package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leaguereg/internal/registration"
)

const (
	wizardKeyPrefix = "wizard:"
	lockKeyPrefix   = "lock:"

	defaultTTL = 2 * time.Hour
)

// ErrWizardNotFound is returned when no wizard is stored under an id
var ErrWizardNotFound = errors.New("wizard not found")

// Config holds configuration for the Redis wizard store
type Config struct {
	RedisClient *redis.Client
	// TTL is how long an untouched wizard is kept
	TTL time.Duration
}

// RedisStore keeps wizard state and short-lived locks in Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed wizard store
func NewRedis(cfg *Config) (*RedisStore, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: cfg.RedisClient, ttl: ttl}, nil
}

func wizardKey(id string) string {
	return wizardKeyPrefix + id
}

// Save stores the wizard and refreshes its expiry
func (r *RedisStore) Save(ctx context.Context, s registration.State) error {
	if s.ID == "" {
		return errors.New("wizard id cannot be empty")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard: %w", err)
	}

	if err := r.client.Set(ctx, wizardKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save wizard: %w", err)
	}
	return nil
}

// Load returns the stored wizard or ErrWizardNotFound
func (r *RedisStore) Load(ctx context.Context, id string) (registration.State, error) {
	data, err := r.client.Get(ctx, wizardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return registration.State{}, ErrWizardNotFound
		}
		return registration.State{}, fmt.Errorf("failed to get wizard: %w", err)
	}

	var s registration.State
	if err := json.Unmarshal(data, &s); err != nil {
		return registration.State{}, fmt.Errorf("failed to unmarshal wizard: %w", err)
	}
	return s, nil
}

// Delete removes a wizard
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, wizardKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete wizard: %w", err)
	}
	return nil
}

// Acquire takes the lock named key for at most ttl. It returns false when
// someone else holds it.
func (r *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock named key
func (r *RedisStore) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
