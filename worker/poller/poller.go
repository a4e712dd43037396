package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"lendrisk/core"
	"lendrisk/internal/looping"
	"lendrisk/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/jmoiron/sqlx/types"
	"golang.org/x/sync/errgroup"
)

// Config poller config
type Config struct {
	Interval time.Duration
	// FetchTimeout bounds the concurrent chain and oracle reads of one tick
	FetchTimeout time.Duration
}

// Worker polls chain state and oracle prices and publishes a fresh read model
type Worker struct {
	worker.TickWorker
	Config Config

	Chain       core.IChainReader
	Oracle      core.IPriceOracleService
	Configs     core.IReserveConfigStore
	Prices      core.IPriceStore
	Reserves    core.IReserveService
	Obligations core.IObligationService
	Rewards     core.IRewardService
	Limiter     core.IRateLimiterService
	Detector    *looping.Detector
	Snapshots   core.ISnapshotStore

	tick int64
	now  func() time.Time
}

// New new poller, prices and limiter may be nil
func New(
	cfg Config,
	chain core.IChainReader,
	oracle core.IPriceOracleService,
	configs core.IReserveConfigStore,
	prices core.IPriceStore,
	reserves core.IReserveService,
	obligations core.IObligationService,
	rewards core.IRewardService,
	limiter core.IRateLimiterService,
	detector *looping.Detector,
	snapshots core.ISnapshotStore,
) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = cfg.Interval / 2
	}

	return &Worker{
		TickWorker:  worker.TickWorker{Delay: cfg.Interval},
		Config:      cfg,
		Chain:       chain,
		Oracle:      oracle,
		Configs:     configs,
		Prices:      prices,
		Reserves:    reserves,
		Obligations: obligations,
		Rewards:     rewards,
		Limiter:     limiter,
		Detector:    detector,
		Snapshots:   snapshots,
		now:         time.Now,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "poller")
	ctx = logger.WithContext(ctx, log)

	start := time.Now()
	model, err := w.Build(ctx)
	observeTick(start, err)
	if err != nil {
		// keep serving the last snapshot
		log.WithError(err).Errorln("skip tick")
		return nil
	}

	if err := w.Snapshots.Publish(ctx, model); err != nil {
		log.WithError(err).Errorln("publish read model")
		return err
	}

	observeModel(model)
	log.WithField("tick", model.Tick).Debugf("published %d reserves, %d obligations", len(model.Reserves), len(model.Obligations))
	return nil
}

type fetched struct {
	state  *core.MarketState
	quotes map[core.AssetID]core.PriceQuote
}

func (w *Worker) fetch(ctx context.Context) (*fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, w.Config.FetchTimeout)
	defer cancel()

	var out fetched
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		state, err := w.Chain.ReadMarket(ctx)
		if err != nil {
			return fmt.Errorf("read market: %w", err)
		}

		out.state = state
		return nil
	})

	g.Go(func() error {
		configs, err := w.Configs.All(ctx)
		if err != nil {
			return fmt.Errorf("load reserve configs: %w", err)
		}

		assets := make([]core.AssetID, 0, len(configs))
		for id := range configs {
			assets = append(assets, id)
		}
		sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })

		quotes, err := w.Oracle.PullQuotes(ctx, assets)
		if err != nil {
			return fmt.Errorf("pull quotes: %w", err)
		}

		out.quotes = quotes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &out, nil
}

// Build fetches inputs and runs the whole pipeline once, without publishing
func (w *Worker) Build(ctx context.Context) (*core.ReadModel, error) {
	log := logger.FromContext(ctx)

	in, err := w.fetch(ctx)
	if err != nil {
		return nil, err
	}

	generatedAt := w.now()
	now := uint64(generatedAt.Unix())

	list := make([]core.Reserve, 0, len(in.state.Reserves))
	lastQuotes := make(map[core.AssetID]uint64)
	for _, r := range in.state.Reserves {
		if q, ok := in.quotes[r.AssetID]; ok {
			r = applyQuote(r, q)
			w.archive(ctx, q)
		} else if ts, ok := w.lastQuote(ctx, r.AssetID); ok {
			lastQuotes[r.AssetID] = ts
		}
		list = append(list, r)
	}

	reserves, err := core.NewReserves(list)
	if err != nil {
		return nil, err
	}

	refreshed, failed := w.Reserves.Refresh(ctx, reserves, now)

	w.tick++
	model := &core.ReadModel{
		MarketID:    in.state.MarketID,
		Tick:        w.tick,
		TimestampS:  now,
		GeneratedAt: generatedAt,
		Reserves:    make(map[core.AssetID]core.ReserveReport, len(reserves)),
		Obligations: make(map[string]core.ObligationReport, len(in.state.Obligations)),
	}

	for id, r := range reserves {
		if err, ok := failed[id]; ok {
			model.Reserves[id] = core.ReserveReport{Reserve: r, Error: err.Error(), LastQuoteS: lastQuotes[id]}
			continue
		}

		report := core.ReserveReport{Reserve: refreshed[id], LastQuoteS: lastQuotes[id]}
		rates, err := w.Reserves.Rates(ctx, refreshed[id])
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Rates = rates
		}
		model.Reserves[id] = report
	}

	campaigns, err := w.Rewards.Refresh(ctx, in.state.Campaigns, now)
	if err != nil {
		log.WithError(err).Warnln("rewards not refreshed, claimable left out")
		campaigns = nil
	}
	model.Campaigns = campaigns

	summaries, errs := w.Obligations.ValuateAll(ctx, in.state.Obligations, refreshed, now)
	for _, ob := range in.state.Obligations {
		report := core.ObligationReport{
			Obligation: ob,
			Summary:    summaries[ob.ID],
			Looping:    w.Detector.IsLooping(ob),
		}
		report.WasLooping, report.NeedsTouch = w.Detector.WasLooping(ob)

		if err, ok := errs[ob.ID]; ok {
			report.Error = err.Error()
		}

		if campaigns != nil {
			claimable, err := w.Rewards.Claimable(ctx, campaigns, ob, !report.Looping)
			if err != nil {
				log.WithError(err).WithField("obligation", ob.ID).Warnln("claimable rewards")
			} else {
				report.Claimable = claimable
			}
		}

		model.Obligations[ob.ID] = report
	}

	if w.Limiter != nil {
		model.RateLimiter.Config = w.Limiter.Config()
		remaining, err := w.Limiter.Remaining(ctx, now)
		if err != nil {
			model.RateLimiter.Error = err.Error()
		} else {
			model.RateLimiter.Remaining = remaining
		}
	} else if in.state.RateLimiter != nil {
		model.RateLimiter.Config = *in.state.RateLimiter
	}

	return model, nil
}

// applyQuote takes the oracle quote when it is newer than what the chain holds
func applyQuote(r core.Reserve, q core.PriceQuote) core.Reserve {
	if q.PublishTimeS <= r.PriceLastUpdateTimestampS {
		return r
	}

	r.Price = q.Price
	r.SmoothedPrice = q.SmoothedPrice
	r.MinPrice, r.MaxPrice = q.Bounds()
	r.PriceLastUpdateTimestampS = q.PublishTimeS
	return r
}

func (w *Worker) archive(ctx context.Context, q core.PriceQuote) {
	if w.Prices == nil {
		return
	}

	content, _ := json.Marshal(q)
	price := &core.Price{
		AssetID:      q.AssetID.String(),
		PublishTimeS: int64(q.PublishTimeS),
		Price:        q.Price.Decimal(),
		Content:      types.JSONText(content),
	}

	if err := w.Prices.Create(ctx, price); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("asset", q.AssetID).Warnln("archive price")
	}
}

// lastQuote publish time of the newest archived quote of asset
func (w *Worker) lastQuote(ctx context.Context, asset core.AssetID) (uint64, bool) {
	if w.Prices == nil {
		return 0, false
	}

	price, err := w.Prices.FindLatest(ctx, asset)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("asset", asset).Debugln("no archived quote")
		return 0, false
	}

	return uint64(price.PublishTimeS), true
}
