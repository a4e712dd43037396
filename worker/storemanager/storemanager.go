package storemanager

import (
	"context"
	"time"

	"lendrisk/core"
	"lendrisk/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker prunes the price archive
type Worker struct {
	worker.BaseJob
	PriceStore core.IPriceStore
	// Retention archived quotes older than this are deleted
	Retention time.Duration
}

// New new store manager worker
func New(ctx context.Context, location *time.Location, retention time.Duration, priceStr core.IPriceStore) *Worker {
	job := Worker{
		PriceStore: priceStr,
		Retention:  retention,
	}

	if location == nil {
		location = time.UTC
	}
	job.Cron = cron.New(cron.WithLocation(location))
	spec := "@every 600s"
	_, _ = job.Cron.AddFunc(spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(ctx)
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	checkPoint := time.Now().Add(-w.Retention)

	if err := w.PriceStore.DeleteByTime(ctx, checkPoint); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("worker", "storemanager").Errorln("prune prices")
		return err
	}

	return nil
}
