package ratelimiter

import (
	"context"

	"lendrisk/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type rateLimiterStore struct {
	db *db.DB
}

// New new rate limiter store
func New(db *db.DB) core.IRateLimiterStore {
	return &rateLimiterStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.RateLimiter{})
		if err := tx.AutoMigrate(core.RateLimiter{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *rateLimiterStore) Find(ctx context.Context, marketID string) (*core.RateLimiter, error) {
	var limiter core.RateLimiter
	if err := s.db.View().Where("market_id=?", marketID).First(&limiter).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.RateLimiter{MarketID: marketID}, nil
		}

		return nil, err
	}

	return &limiter, nil
}

func (s *rateLimiterStore) Save(ctx context.Context, limiter *core.RateLimiter) error {
	if limiter.ID == 0 {
		return s.db.Update().Create(limiter).Error
	}

	version := limiter.Version
	tx := s.db.Update().Model(core.RateLimiter{}).Where("id=? and version=?", limiter.ID, version).Updates(map[string]interface{}{
		"window_start": limiter.WindowStart,
		"cur_qty":      limiter.CurQty,
		"prev_qty":     limiter.PrevQty,
		"version":      version + 1,
	})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return core.ErrStateConflict
	}

	limiter.Version = version + 1
	return nil
}
