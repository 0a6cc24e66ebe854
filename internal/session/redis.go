// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/metrics"
)

const redisKeyPrefix = "scribe:session:"

// RedisStore persists sessions in Redis. The key TTL implements the idle
// expiry: Save and Touch reset it to the max age.
type RedisStore struct {
	client *database.RedisClient
	maxAge time.Duration
}

// NewRedisStore returns a store on the given client with the given idle
// lifetime. Zero or negative lifetimes fall back to the default.
func NewRedisStore(client *database.RedisClient, maxAge time.Duration) *RedisStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &RedisStore{client: client, maxAge: maxAge}
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	stored := *sess
	stored.LastSeenAt = time.Now().UTC()

	payload, err := json.Marshal(&stored)
	if err != nil {
		metrics.SessionStoreOps.WithLabelValues("save", "error").Inc()
		return apperrors.NewInternalError("failed to encode session", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, payload, s.maxAge); err != nil {
		metrics.SessionStoreOps.WithLabelValues("save", "error").Inc()
		return apperrors.NewInternalError("failed to store session", err)
	}

	metrics.SessionStoreOps.WithLabelValues("save", "ok").Inc()
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id)
	if err == redis.Nil {
		metrics.SessionStoreOps.WithLabelValues("get", "miss").Inc()
		return nil, apperrors.NewAuthenticationError("session not found")
	}
	if err != nil {
		metrics.SessionStoreOps.WithLabelValues("get", "error").Inc()
		return nil, apperrors.NewInternalError("failed to load session", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		metrics.SessionStoreOps.WithLabelValues("get", "error").Inc()
		return nil, apperrors.NewInternalError("failed to decode session", err)
	}

	metrics.SessionStoreOps.WithLabelValues("get", "ok").Inc()
	return &sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	ok, err := s.client.Client.Expire(ctx, redisKeyPrefix+id, s.maxAge).Result()
	if err != nil {
		metrics.SessionStoreOps.WithLabelValues("touch", "error").Inc()
		return apperrors.NewInternalError("failed to refresh session", err)
	}
	if !ok {
		metrics.SessionStoreOps.WithLabelValues("touch", "miss").Inc()
		return apperrors.NewAuthenticationError("session not found")
	}

	metrics.SessionStoreOps.WithLabelValues("touch", "ok").Inc()
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id); err != nil {
		metrics.SessionStoreOps.WithLabelValues("delete", "error").Inc()
		return apperrors.NewInternalError("failed to delete session", err)
	}

	metrics.SessionStoreOps.WithLabelValues("delete", "ok").Inc()
	return nil
}
