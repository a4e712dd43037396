package storemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"lendrisk/core"

	"github.com/stretchr/testify/assert"
)

type priceStore struct {
	before time.Time
	err    error
}

func (s *priceStore) Create(ctx context.Context, price *core.Price) error {
	return nil
}

func (s *priceStore) FindLatest(ctx context.Context, assetID core.AssetID) (*core.Price, error) {
	return nil, nil
}

func (s *priceStore) DeleteByTime(ctx context.Context, t time.Time) error {
	s.before = t
	return s.err
}

func TestPrunePrices(t *testing.T) {
	store := &priceStore{}
	w := New(context.Background(), nil, 48*time.Hour, store)

	assert.NoError(t, w.OnWork())
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), store.before, time.Minute)

	store.err = errors.New("db down")
	assert.Error(t, w.OnWork())
}
