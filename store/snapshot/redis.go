package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lendrisk/core"

	"github.com/fox-one/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisKey key the latest read model is written to
const RedisKey = "lendrisk:read-model"

// WithRedis mirrors every published read model to redis as json. Readers keep being
// served from the wrapped store, a failed mirror write is logged and dropped.
func WithRedis(store core.ISnapshotStore, client *redis.Client, ttl time.Duration) core.ISnapshotStore {
	return &redisPublisher{
		ISnapshotStore: store,
		client:         client,
		ttl:            ttl,
	}
}

type redisPublisher struct {
	core.ISnapshotStore
	client *redis.Client
	ttl    time.Duration
}

func (s *redisPublisher) Publish(ctx context.Context, model *core.ReadModel) error {
	if err := s.ISnapshotStore.Publish(ctx, model); err != nil {
		return err
	}

	data, err := json.Marshal(model)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, RedisKey, data, s.ttl).Err(); err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("mirror read model to redis")
	}

	return nil
}

// FromRedis read model store backed by redis only, for processes that serve what a
// separate worker publishes
func FromRedis(client *redis.Client, ttl time.Duration) core.ISnapshotStore {
	return &redisStore{client: client, ttl: ttl}
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Publish(ctx context.Context, model *core.ReadModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, RedisKey, data, s.ttl).Err()
}

func (s *redisStore) Current(ctx context.Context) (*core.ReadModel, error) {
	data, err := s.client.Get(ctx, RedisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNoSnapshot
		}

		return nil, err
	}

	var model core.ReadModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}
