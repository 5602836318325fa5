// Package session provides the optional shared session-context store. The
// service is correct without it: session context normally rides in the
// request/response, so any instance can serve any turn. When clients
// cannot round-trip the context blob, this store keeps it in Redis with a
// per-key TTL instead of in-process memory, which would silently lose
// state under horizontal scaling.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pocket-pharmacist/internal/common/config"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/models"
)

const keyPrefix = "chat:session:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(cfg config.RedisConfig, ttl time.Duration, log logger.Logger) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &Store{
		client: rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "session-store",
		}),
	}
}

// Ping tests the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Save stores the session context under its id, refreshing the TTL.
func (s *Store) Save(ctx context.Context, sessionID string, state models.SessionState) error {
	if len(state) == 0 {
		return s.Delete(ctx, sessionID)
	}
	return s.client.Set(ctx, keyPrefix+sessionID, []byte(state), s.ttl).Err()
}

// Load returns the stored context, or nil when none exists.
func (s *Store) Load(ctx context.Context, sessionID string) (models.SessionState, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return models.SessionState(data), nil
}

// Delete removes the stored context for a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+sessionID).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
