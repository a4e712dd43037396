package reserve

import (
	"context"
	"fmt"

	"lendrisk/core"
)

type reserveConfigStore struct {
	chain core.IChainReader
}

// New reserve config store reading straight from the chain indexer
func New(chain core.IChainReader) core.IReserveConfigStore {
	return &reserveConfigStore{chain: chain}
}

func (s *reserveConfigStore) Find(ctx context.Context, asset core.AssetID) (*core.ReserveConfig, error) {
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

func (s *reserveConfigStore) All(ctx context.Context) (map[core.AssetID]core.ReserveConfig, error) {
	list, err := s.chain.ReadReserveConfigs(ctx)
	if err != nil {
		return nil, err
	}

	configs := make(map[core.AssetID]core.ReserveConfig, len(list))
	for _, cfg := range list {
		if _, dup := configs[cfg.AssetID]; dup {
			return nil, fmt.Errorf("%w: duplicated reserve config %s", core.ErrInvalidConfiguration, cfg.AssetID)
		}
		configs[cfg.AssetID] = cfg
	}

	return configs, nil
}

func (s *reserveConfigStore) Purge(ctx context.Context) {}
