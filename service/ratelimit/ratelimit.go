package ratelimit

import (
	"context"
	"errors"
	"sync"

	"lendrisk/core"
	"lendrisk/internal/ratelimit"

	"github.com/fox-one/pkg/logger"
)

// maxAttempts retries of a consume that lost an optimistic version race
const maxAttempts = 3

type service struct {
	marketID string
	cfg      core.RateLimiterConfig
	store    core.IRateLimiterStore

	// single writer per market
	mu sync.Mutex
}

// New new rate limiter service of one market
func New(marketID string, cfg core.RateLimiterConfig, store core.IRateLimiterStore) (core.IRateLimiterService, error) {
	if err := ratelimit.Validate(cfg); err != nil {
		return nil, err
	}

	return &service{
		marketID: marketID,
		cfg:      cfg,
		store:    store,
	}, nil
}

func (s *service) Config() core.RateLimiterConfig {
	return s.cfg
}

// Consume records an outflow of amount at now.
//
// A rejected outflow returns the decision together with an error wrapping
// core.ErrRateLimitExceeded, and the stored state is left untouched.
func (s *service) Consume(ctx context.Context, amount uint64, now uint64) (*core.OutflowDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContext(ctx).WithField("market", s.marketID)

	for attempt := 1; ; attempt++ {
		decision, err := s.consume(ctx, amount, now)
		if errors.Is(err, core.ErrStateConflict) && attempt < maxAttempts {
			log.WithError(err).Debugf("consume %d, retry %d", amount, attempt)
			continue
		}

		if errors.Is(err, core.ErrRateLimitExceeded) {
			log.WithError(err).Infoln("outflow rejected")
		}

		return decision, err
	}
}

func (s *service) consume(ctx context.Context, amount uint64, now uint64) (*core.OutflowDecision, error) {
	record, err := s.store.Find(ctx, s.marketID)
	if err != nil {
		return nil, err
	}

	state := record.State()
	next, err := ratelimit.Process(s.cfg, state, now, amount)
	if err != nil {
		if !errors.Is(err, core.ErrRateLimitExceeded) {
			return nil, err
		}

		remaining, rerr := ratelimit.Remaining(s.cfg, state, now)
		if rerr != nil {
			return nil, rerr
		}

		return &core.OutflowDecision{
			Allowed:   false,
			Requested: amount,
			Remaining: remaining,
			State:     state,
		}, err
	}

	record.SetState(next)
	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}

	remaining, err := ratelimit.Remaining(s.cfg, next, now)
	if err != nil {
		return nil, err
	}

	return &core.OutflowDecision{
		Allowed:   true,
		Requested: amount,
		Remaining: remaining,
		State:     next,
	}, nil
}

func (s *service) Remaining(ctx context.Context, now uint64) (uint64, error) {
	record, err := s.store.Find(ctx, s.marketID)
	if err != nil {
		return 0, err
	}

	return ratelimit.Remaining(s.cfg, record.State(), now)
}
