package cmd

import (
	"time"

	"lendrisk/core"
	"lendrisk/internal/looping"
	"lendrisk/service/chain"
	"lendrisk/service/obligation"
	"lendrisk/service/oracle"
	"lendrisk/service/ratelimit"
	"lendrisk/service/reserve"
	"lendrisk/service/reward"
	"lendrisk/store/price"
	"lendrisk/store/ratelimiter"
	reservestore "lendrisk/store/reserve"
	"lendrisk/store/snapshot"
	"lendrisk/worker/poller"

	"github.com/fox-one/pkg/store/db"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const reserveConfigExpiry = 60 * time.Minute

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

// provideOptionalDatabase nil when no database is configured
func provideOptionalDatabase() *db.DB {
	if cfg.DB.Dialect == "" {
		return nil
	}

	return provideDatabase()
}

// provideRedis nil when redis is not configured
func provideRedis() *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ---------------store-----------------------------------------

func provideReserveConfigStore(chainReader core.IChainReader) core.IReserveConfigStore {
	return reservestore.Cache(reservestore.New(chainReader), reserveConfigExpiry)
}

// providePriceStore nil without a database, quotes are then not archived
func providePriceStore(db *db.DB) core.IPriceStore {
	if db == nil {
		return nil
	}

	return price.New(db)
}

func provideRateLimiterStore(db *db.DB) core.IRateLimiterStore {
	return ratelimiter.New(db)
}

// provideSnapshotStore in process store, mirrored to redis when a client is given
func provideSnapshotStore(client *redis.Client) core.ISnapshotStore {
	store := snapshot.New()
	if client == nil {
		return store
	}

	return snapshot.WithRedis(store, client, time.Duration(cfg.Redis.TTLS)*time.Second)
}

// ------------------service------------------------------------

func provideChainReader() core.IChainReader {
	return chain.New(chain.Config{
		EndPoint: cfg.Chain.EndPoint,
		MarketID: cfg.Chain.MarketID,
	})
}

func providePriceService() core.IPriceOracleService {
	return oracle.New(oracle.Config{
		EndPoint:         cfg.PriceOracle.EndPoint,
		MaxConfidenceBps: cfg.PriceOracle.MaxConfidenceBps,
	})
}

func provideObligationService() core.IObligationService {
	solver, err := cfg.SolverConfig()
	if err != nil {
		panic(err)
	}

	return obligation.New(obligation.Config{
		Bound:  cfg.Bound(),
		Solver: solver,
	})
}

// provideRateLimiter nil when the limiter is disabled
func provideRateLimiter(db *db.DB) core.IRateLimiterService {
	if !cfg.RateLimiter.Enabled {
		return nil
	}
	if db == nil {
		panic("rate_limiter.enabled needs a database")
	}

	limiter, err := ratelimit.New(cfg.Chain.MarketID, cfg.RateLimiterConfig(), provideRateLimiterStore(db))
	if err != nil {
		panic(err)
	}

	return limiter
}

func provideLoopDetector() *looping.Detector {
	detector, err := looping.New(cfg.LoopGroups)
	if err != nil {
		panic(err)
	}

	return detector
}

func providePoller(
	chainReader core.IChainReader,
	configs core.IReserveConfigStore,
	prices core.IPriceStore,
	limiter core.IRateLimiterService,
	snapshots core.ISnapshotStore,
) *poller.Worker {
	return poller.New(
		poller.Config{
			Interval:     cfg.PollInterval(),
			FetchTimeout: cfg.FetchTimeout(),
		},
		chainReader,
		providePriceService(),
		configs,
		prices,
		reserve.New(),
		provideObligationService(),
		reward.New(),
		limiter,
		provideLoopDetector(),
		snapshots,
	)
}
