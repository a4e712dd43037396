package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker long running job
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker runs a function every Delay until the context is done
type TickWorker struct {
	Delay time.Duration
}

// StartTick run fn right away and then on every tick. A failed run is logged and the
// next tick proceeds as usual.
func (w *TickWorker) StartTick(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := w.Delay
	if delay <= 0 {
		delay = time.Second
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := fn(ctx); err != nil {
				logger.FromContext(ctx).WithError(err).Warnln("tick")
			}

			timer.Reset(delay)
		}
	}
}

// IJob job的接口
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

// BaseJob cron driven job, a run is skipped while the previous one is still going
type BaseJob struct {
	Cron    *cron.Cron
	OnWork  OnWork
	running int32
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

func (job *BaseJob) Stop() error {
	<-job.Cron.Stop().Done()
	return nil
}

func (job *BaseJob) Run() {
	if !atomic.CompareAndSwapInt32(&job.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&job.running, 0)

	_ = job.OnWork()
}

// Job runs a cron job as a Worker, started on Run and stopped once ctx is done
func Job(job IJob) Worker {
	return &cronWorker{job: job}
}

type cronWorker struct {
	job IJob
}

func (w *cronWorker) Run(ctx context.Context) error {
	if err := w.job.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	_ = w.job.Stop()
	return ctx.Err()
}
