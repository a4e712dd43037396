package chain

import (
	"context"
	"fmt"

	"lendrisk/core"
	"lendrisk/pkg/id"
	"lendrisk/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
)

// Config chain indexer config
type Config struct {
	EndPoint string
	MarketID string
}

type reader struct {
	cfg Config
}

// New new chain reader over the indexer http api
func New(cfg Config) core.IChainReader {
	return &reader{cfg: cfg}
}

// ReadMarket raw state of the whole market
func (r *reader) ReadMarket(ctx context.Context) (*core.MarketState, error) {
	url := fmt.Sprintf("%s/api/markets/%s", r.cfg.EndPoint, r.cfg.MarketID)

	var market rawMarket
	if err := r.get(ctx, url, &market); err != nil {
		return nil, err
	}

	if market.ID == "" {
		market.ID = r.cfg.MarketID
	}

	return market.toState()
}

// ReadReserveConfigs slow changing reserve configs
func (r *reader) ReadReserveConfigs(ctx context.Context) ([]core.ReserveConfig, error) {
	url := fmt.Sprintf("%s/api/markets/%s/reserve-configs", r.cfg.EndPoint, r.cfg.MarketID)

	var raws []rawReserveConfig
	if err := r.get(ctx, url, &raws); err != nil {
		return nil, err
	}

	configs := make([]core.ReserveConfig, 0, len(raws))
	for _, raw := range raws {
		cfg, err := raw.toConfig()
		if err != nil {
			return nil, fmt.Errorf("reserve config %s: %w", raw.CoinType, err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func (r *reader) get(ctx context.Context, url string, obj interface{}) error {
	requestID := id.GenTraceID()
	logger.FromContext(ctx).WithField("request_id", requestID).Debugln("read chain:", url)

	resp, err := resthttp.WithRequestID(ctx, requestID).Get(url)
	if err != nil {
		return err
	}

	return resthttp.ParseResponse(resp, obj)
}
