package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NASWA-OpenUI/Playground/internal/models"
)

const (
	registryKeyPrefix = "registry:service:"
	registryIndexKey  = "registry:services"
)

// RedisRegistryStore keeps service registrations as JSON values in
// Redis with a set index over service ids. Heartbeat state is
// cache-shaped, so a Redis backend lets several gateway replicas share
// one liveness view.
type RedisRegistryStore struct {
	client *redis.Client
}

func NewRedisRegistryStore(client *redis.Client) *RedisRegistryStore {
	return &RedisRegistryStore{client: client}
}

func registrationKey(serviceID string) string {
	return registryKeyPrefix + serviceID
}

func (s *RedisRegistryStore) Save(ctx context.Context, reg *models.ServiceRegistration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registrationKey(reg.ServiceID), data, 0)
	pipe.SAdd(ctx, registryIndexKey, reg.ServiceID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

func (s *RedisRegistryStore) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceRegistration, error) {
	data, err := s.client.Get(ctx, registrationKey(serviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	var reg models.ServiceRegistration
	if err := json.Unmarshal([]byte(data), &reg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registration: %w", err)
	}
	return &reg, nil
}

// Mutate applies fn under an optimistic WATCH transaction so that a
// concurrent write to the same record retries rather than being lost.
func (s *RedisRegistryStore) Mutate(ctx context.Context, serviceID string, fn func(*models.ServiceRegistration) error) (*models.ServiceRegistration, error) {
	key := registrationKey(serviceID)

	var result *models.ServiceRegistration
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrServiceNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}

		var reg models.ServiceRegistration
		if err := json.Unmarshal([]byte(data), &reg); err != nil {
			return fmt.Errorf("failed to unmarshal registration: %w", err)
		}

		if err := fn(&reg); err != nil {
			return err
		}

		updated, err := json.Marshal(&reg)
		if err != nil {
			return fmt.Errorf("failed to marshal registration: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		result = &reg
		return nil
	}

	// Retry a few times on WATCH conflicts.
	for i := 0; i < 5; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("registration update for %s kept conflicting", serviceID)
}

func (s *RedisRegistryStore) Delete(ctx context.Context, serviceID string) error {
	removed, err := s.client.Del(ctx, registrationKey(serviceID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	if removed == 0 {
		return ErrServiceNotFound
	}
	if err := s.client.SRem(ctx, registryIndexKey, serviceID).Err(); err != nil {
		return fmt.Errorf("failed to remove registration from index: %w", err)
	}
	return nil
}

func (s *RedisRegistryStore) List(ctx context.Context) ([]*models.ServiceRegistration, error) {
	ids, err := s.client.SMembers(ctx, registryIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list registration ids: %w", err)
	}
	sort.Strings(ids)

	regs := make([]*models.ServiceRegistration, 0, len(ids))
	for _, id := range ids {
		reg, err := s.GetByServiceID(ctx, id)
		if errors.Is(err, ErrServiceNotFound) {
			// Index entry without a value; clean it up lazily.
			s.client.SRem(ctx, registryIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (s *RedisRegistryStore) ListByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ServiceRegistration, 0, len(all))
	for _, reg := range all {
		if reg.Status == status {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (s *RedisRegistryStore) CountByStatus(ctx context.Context, status string) (int, error) {
	regs, err := s.ListByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	return len(regs), nil
}

func (s *RedisRegistryStore) ListStale(ctx context.Context, cutoff time.Time) ([]*models.ServiceRegistration, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ServiceRegistration, 0, len(all))
	for _, reg := range all {
		if reg.LastHeartbeat.Before(cutoff) {
			out = append(out, reg)
		}
	}
	return out, nil
}
