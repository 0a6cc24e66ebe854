// internal/store/health.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/models"
)

const (
	healthKeyPrefix = "scribe:health:"

	// Samples linger long enough to report a host as offline before the
	// key disappears entirely.
	healthSampleTTL = 10 * time.Minute
)

// HealthStore keeps worker heartbeats in Redis, one key per host.
type HealthStore struct {
	client *database.RedisClient
}

// NewHealthStore returns a health store on the given Redis client.
func NewHealthStore(client *database.RedisClient) *HealthStore {
	return &HealthStore{client: client}
}

// Record stores a heartbeat, stamping it with the current time.
func (s *HealthStore) Record(ctx context.Context, hb models.Heartbeat) error {
	sample := models.HealthSample{
		Seen:        time.Now().Unix(),
		LoadAvg:     hb.LoadAvg,
		MemoryUsage: hb.MemoryUsage,
		GPUUsage:    hb.GPUUsage,
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return apperrors.NewInternalError("failed to encode heartbeat", err)
	}
	if err := s.client.Set(ctx, healthKeyPrefix+hb.Hostname, payload, healthSampleTTL); err != nil {
		return apperrors.NewInternalError("failed to store heartbeat", err)
	}
	return nil
}

// Samples returns the latest heartbeat per host.
func (s *HealthStore) Samples(ctx context.Context) (map[string]models.HealthSample, error) {
	samples := make(map[string]models.HealthSample)

	var cursor uint64
	for {
		keys, next, err := s.client.Client.Scan(ctx, cursor, healthKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan heartbeats", err)
		}

		for _, key := range keys {
			payload, err := s.client.Get(ctx, key)
			if err != nil {
				continue
			}
			var sample models.HealthSample
			if err := json.Unmarshal([]byte(payload), &sample); err != nil {
				continue
			}
			samples[key[len(healthKeyPrefix):]] = sample
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return samples, nil
}
