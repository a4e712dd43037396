package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lendrisk/core"
	"lendrisk/pkg/number"
	"lendrisk/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cast"
)

// ErrRejectedQuote quote missing, non positive or too uncertain
var ErrRejectedQuote = errors.New("rejected price quote")

// Config price oracle config
type Config struct {
	EndPoint string
	// MaxConfidenceBps quotes whose confidence interval is wider than this share of the
	// price are dropped, zero accepts any
	MaxConfidenceBps uint64
}

// PriceService price service
type PriceService struct {
	Config Config
}

// New new oracle price service
func New(cfg Config) core.IPriceOracleService {
	return &PriceService{
		Config: cfg,
	}
}

type priceTicker struct {
	AssetID       string         `json:"asset_id"`
	Price         number.Decimal `json:"price"`
	SmoothedPrice number.Decimal `json:"smoothed_price"`
	Confidence    number.Decimal `json:"confidence"`
	PublishTime   interface{}    `json:"publish_time"`
}

// PullQuotes pull quotes of many assets at once, rejected quotes are left out
func (s *PriceService) PullQuotes(ctx context.Context, assets []core.AssetID) (map[core.AssetID]core.PriceQuote, error) {
	log := logger.FromContext(ctx)

	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.String())
	}

	resp, err := resthttp.Request(ctx).
		SetQueryParam("assets", strings.Join(ids, ",")).
		Get(s.Config.EndPoint + "/api/prices")
	if err != nil {
		return nil, err
	}

	var tickers []priceTicker
	if err := resthttp.ParseResponse(resp, &tickers); err != nil {
		return nil, err
	}

	quotes := make(map[core.AssetID]core.PriceQuote, len(tickers))
	for _, t := range tickers {
		q, err := s.quote(t)
		if err != nil {
			log.WithError(err).WithField("asset", t.AssetID).Warnln("drop price quote")
			continue
		}

		quotes[q.AssetID] = *q
	}

	return quotes, nil
}

func (s *PriceService) quote(t priceTicker) (*core.PriceQuote, error) {
	asset, err := core.NewAssetID(t.AssetID)
	if err != nil {
		return nil, err
	}

	if t.Price.IsZero() {
		return nil, fmt.Errorf("%w: %s price is zero", ErrRejectedQuote, asset)
	}

	publishTime, err := cast.ToUint64E(t.PublishTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %s publish time %v", ErrRejectedQuote, asset, t.PublishTime)
	}

	if maxBps := s.Config.MaxConfidenceBps; maxBps > 0 {
		limit, err := t.Price.Mul(number.FromBps(maxBps))
		if err != nil {
			return nil, err
		}

		if t.Confidence.Gt(limit) {
			return nil, fmt.Errorf("%w: %s confidence %s over %s", ErrRejectedQuote, asset, t.Confidence, limit)
		}
	}

	smoothed := t.SmoothedPrice
	if smoothed.IsZero() {
		smoothed = t.Price
	}

	return &core.PriceQuote{
		AssetID:       asset,
		Price:         t.Price,
		SmoothedPrice: smoothed,
		Confidence:    t.Confidence,
		PublishTimeS:  publishTime,
	}, nil
}
