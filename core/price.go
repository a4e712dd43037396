package core

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"lendrisk/pkg/number"
)

// PriceQuote oracle output for one asset
type PriceQuote struct {
	AssetID       AssetID        `json:"asset_id"`
	Price         number.Decimal `json:"price"`
	SmoothedPrice number.Decimal `json:"smoothed_price"`
	Confidence    number.Decimal `json:"confidence"`
	PublishTimeS  uint64         `json:"publish_time_s"`
}

// Bounds min and max plausible price, the spot and smoothed prices bracket it
func (q PriceQuote) Bounds() (lo, hi number.Decimal) {
	return number.Min(q.Price, q.SmoothedPrice), number.Max(q.Price, q.SmoothedPrice)
}

// Price archived oracle quote
type Price struct {
	ID           int64           `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	AssetID      string          `sql:"size:255;unique_index:idx_prices" json:"asset_id,omitempty"`
	PublishTimeS int64           `sql:"default:0;unique_index:idx_prices" json:"publish_time_s,omitempty"`
	Price        decimal.Decimal `sql:"type:decimal(36,18)" json:"price,omitempty"`
	Content      types.JSONText  `sql:"type:varchar(1024)" json:"content,omitempty"`
	CreatedAt    time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at,omitempty"`
}

// IPriceStore price store interface
type IPriceStore interface {
	Create(ctx context.Context, price *Price) error
	FindLatest(ctx context.Context, assetID AssetID) (*Price, error)
	DeleteByTime(ctx context.Context, t time.Time) error
}

// IPriceOracleService price oracle service interface
type IPriceOracleService interface {
	PullQuotes(ctx context.Context, assets []AssetID) (map[AssetID]PriceQuote, error)
}
