package obligation

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"lendrisk/core"
	"lendrisk/internal/lending"
	"lendrisk/pkg/bisection"
	"lendrisk/pkg/concurrency"

	"github.com/fox-one/pkg/logger"
)

// Config obligation service config
type Config struct {
	Bound  core.StalenessBound
	Solver bisection.Config
	// Concurrency max obligations valuated at once, defaults to the number of cpus
	Concurrency int
}

type service struct {
	cfg Config
}

// New new obligation service
func New(cfg Config) core.IObligationService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Solver.MaxIterations <= 0 {
		cfg.Solver = bisection.DefaultConfig()
	}

	return &service{cfg: cfg}
}

func (s *service) Valuate(ctx context.Context, obligation core.Obligation, reserves core.Reserves, now uint64) (*core.ObligationSummary, error) {
	return lending.Valuate(obligation, reserves, now, s.cfg.Bound)
}

// ValuateAll valuates obligations concurrently, one failing obligation never fails the batch
func (s *service) ValuateAll(ctx context.Context, obligations []core.Obligation, reserves core.Reserves, now uint64) (map[string]*core.ObligationSummary, map[string]error) {
	log := logger.FromContext(ctx).WithField("service", "obligation")

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		summaries = make(map[string]*core.ObligationSummary, len(obligations))
		failed    = make(map[string]error)
		limit     = concurrency.NewGoLimit(s.cfg.Concurrency)
	)

	for idx := range obligations {
		ob := obligations[idx]
		if err := ctx.Err(); err != nil {
			mu.Lock()
			failed[ob.ID] = err
			mu.Unlock()
			continue
		}

		limit.Add()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer limit.Done()

			summary, err := lending.Valuate(ob, reserves, now, s.cfg.Bound)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[ob.ID] = err
				return
			}
			summaries[ob.ID] = summary
		}()
	}

	wg.Wait()
	limit.Close()

	if len(failed) > 0 {
		log.Debugf("valuate %d obligations, %d failed", len(obligations), len(failed))
	}

	return summaries, failed
}

func (s *service) MaxBorrow(ctx context.Context, obligation core.Obligation, reserves core.Reserves, asset core.AssetID, now uint64) (uint64, error) {
	amount, err := lending.MaxBorrow(s.query(obligation, reserves, asset, now))
	s.logSolver(ctx, "max borrow", obligation, asset, err)
	return amount, err
}

func (s *service) MaxWithdraw(ctx context.Context, obligation core.Obligation, reserves core.Reserves, asset core.AssetID, now uint64) (uint64, error) {
	amount, err := lending.MaxWithdraw(s.query(obligation, reserves, asset, now))
	s.logSolver(ctx, "max withdraw", obligation, asset, err)
	return amount, err
}

func (s *service) query(obligation core.Obligation, reserves core.Reserves, asset core.AssetID, now uint64) lending.Query {
	return lending.Query{
		Obligation: obligation,
		Reserves:   reserves,
		Asset:      asset,
		Now:        now,
		Bound:      s.cfg.Bound,
		Solver:     s.cfg.Solver,
	}
}

func (s *service) logSolver(ctx context.Context, action string, obligation core.Obligation, asset core.AssetID, err error) {
	if err == nil {
		return
	}

	log := logger.FromContext(ctx).WithError(err).WithField("obligation", obligation.ID).WithField("asset", asset)
	if errors.Is(err, core.ErrSolverDidNotConverge) {
		log.Warnln(action, "did not converge, returning the safe bound")
		return
	}

	log.Infoln(action)
}
