package metadata

import (
	"context"
	"time"

	"lendrisk/core"
	"lendrisk/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker re-warms the reserve config cache on a schedule
type Worker struct {
	worker.BaseJob
	Configs core.IReserveConfigStore
}

// New new metadata worker, spec is a cron spec such as "@every 60m"
func New(ctx context.Context, spec string, location *time.Location, configs core.IReserveConfigStore) (*Worker, error) {
	job := Worker{
		Configs: configs,
	}

	if location == nil {
		location = time.UTC
	}
	job.Cron = cron.New(cron.WithLocation(location))
	if _, err := job.Cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}
	job.OnWork = func() error {
		return job.onWork(ctx)
	}

	return &job, nil
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "metadata")

	w.Configs.Purge(ctx)
	configs, err := w.Configs.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("reload reserve configs")
		return err
	}

	log.Infof("reloaded %d reserve configs", len(configs))
	return nil
}
