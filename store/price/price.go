package price

import (
	"context"
	"time"

	"lendrisk/core"

	"github.com/fox-one/pkg/store/db"
)

type priceStore struct {
	db *db.DB
}

// New new price store
func New(db *db.DB) core.IPriceStore {
	return &priceStore{
		db: db,
	}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Price{})

		if err := tx.AutoMigrate(core.Price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Create archives a quote once per asset and publish time
func (s *priceStore) Create(ctx context.Context, price *core.Price) error {
	return s.db.Update().Where("asset_id=? and publish_time_s=?", price.AssetID, price.PublishTimeS).FirstOrCreate(price).Error
}

func (s *priceStore) FindLatest(ctx context.Context, assetID core.AssetID) (*core.Price, error) {
	var price core.Price
	if e := s.db.View().Where("asset_id=?", assetID.String()).Order("publish_time_s desc").First(&price).Error; e != nil {
		return nil, e
	}

	return &price, nil
}

func (s *priceStore) DeleteByTime(ctx context.Context, t time.Time) error {
	return s.db.Update().Where("created_at < ?", t).Delete(core.Price{}).Error
}
