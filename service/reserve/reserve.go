package reserve

import (
	"context"

	"lendrisk/core"
	"lendrisk/internal/lending"

	"github.com/fox-one/pkg/logger"
)

type service struct{}

// New new reserve service
func New() core.IReserveService {
	return &service{}
}

// Refresh accrue interest of every reserve up to now
//
// A reserve that fails to accrue (overflow, broken interest curve) is unusable until
// corrected upstream, it is dropped from the result and reported in the error map.
func (s *service) Refresh(ctx context.Context, reserves core.Reserves, now uint64) (core.Reserves, map[core.AssetID]error) {
	log := logger.FromContext(ctx)

	refreshed := make(core.Reserves, len(reserves))
	failed := make(map[core.AssetID]error)
	for id, r := range reserves {
		next, err := lending.Refresh(r, now)
		if err != nil {
			log.WithError(err).WithField("asset", id).Errorln("refresh reserve")
			failed[id] = err
			continue
		}

		refreshed[id] = next
	}

	return refreshed, failed
}

func (s *service) Rates(ctx context.Context, reserve core.Reserve) (*core.ReserveRates, error) {
	return lending.Rates(reserve)
}
