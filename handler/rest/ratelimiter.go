package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"lendrisk/core"
	"lendrisk/handler/param"
	"lendrisk/handler/render"
	"lendrisk/handler/views"
)

var errNoLimiter = fmt.Errorf("rate limiter not configured: %w", core.ErrInvalidConfiguration)

func rateLimiterHandler(snapshots core.ISnapshotStore, limiter core.IRateLimiterService, clock Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil {
			remaining, err := limiter.Remaining(r.Context(), clock.Now())
			if err != nil {
				render.Fail(w, err)
				return
			}

			cfg := limiter.Config()
			render.JSON(w, views.RateLimiter{RateLimiterConfig: cfg, Unlimited: cfg.Unlimited(), Remaining: remaining})
			return
		}

		model, err := snapshots.Current(r.Context())
		if err != nil {
			render.Fail(w, err)
			return
		}

		cfg := model.RateLimiter.Config
		render.JSON(w, views.RateLimiter{RateLimiterConfig: cfg, Unlimited: cfg.Unlimited(), Remaining: model.RateLimiter.Remaining})
	}
}

func outflowHandler(limiter core.IRateLimiterService, clock Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			render.Fail(w, errNoLimiter)
			return
		}

		var body struct {
			Amount interface{} `json:"amount"`
		}
		if err := param.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := strconv.ParseUint(fmt.Sprint(body.Amount), 10, 64)
		if err != nil || amount == 0 {
			render.BadRequest(w, fmt.Errorf("invalid amount %v", body.Amount))
			return
		}

		decision, err := limiter.Consume(r.Context(), amount, clock.Now())
		if err != nil {
			if errors.Is(err, core.ErrRateLimitExceeded) && decision != nil {
				render.Status(w, http.StatusTooManyRequests, views.Outflow{
					OutflowDecision: *decision,
					Code:            int(core.ErrCodeRateLimited),
					Msg:             err.Error(),
				})
				return
			}

			render.Fail(w, err)
			return
		}

		render.JSON(w, views.Outflow{OutflowDecision: *decision})
	}
}
