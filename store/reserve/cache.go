package reserve

import (
	"context"
	"fmt"
	"time"

	"lendrisk/core"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

const allKey = "reserve:configs"

// Cache caches the whole config set for exp, concurrent misses share one load
func Cache(store core.IReserveConfigStore, exp time.Duration) core.IReserveConfigStore {
	return &cacheReserveConfigStore{
		IReserveConfigStore: store,
		cache:               gcache.New(16).LRU().Expiration(exp).Build(),
		sf:                  &singleflight.Group{},
	}
}

type cacheReserveConfigStore struct {
	core.IReserveConfigStore
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cacheReserveConfigStore) Find(ctx context.Context, asset core.AssetID) (*core.ReserveConfig, error) {
	configs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	cfg, ok := configs[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrReserveNotFound, asset)
	}

	return &cfg, nil
}

func (s *cacheReserveConfigStore) All(ctx context.Context) (map[core.AssetID]core.ReserveConfig, error) {
	if v, err := s.cache.Get(allKey); err == nil {
		if configs, ok := v.(map[core.AssetID]core.ReserveConfig); ok {
			return configs, nil
		}
	}

	v, err, _ := s.sf.Do(allKey, func() (interface{}, error) {
		configs, err := s.IReserveConfigStore.All(ctx)
		if err != nil {
			return nil, err
		}

		_ = s.cache.Set(allKey, configs)
		return configs, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[core.AssetID]core.ReserveConfig), nil
}

func (s *cacheReserveConfigStore) Purge(ctx context.Context) {
	s.cache.Purge()
	s.IReserveConfigStore.Purge(ctx)
}
