package rest

import (
	"errors"
	"net/http"
	"time"

	"lendrisk/core"
	"lendrisk/handler/render"

	"github.com/go-chi/chi"
)

// Clock unix seconds source
type Clock func() time.Time

// Now unix seconds, wall clock when c is nil
func (c Clock) Now() uint64 {
	if c == nil {
		return uint64(time.Now().Unix())
	}

	return uint64(c().Unix())
}

// Handle handle rest api request, limiter and clock may be nil
func Handle(snapshots core.ISnapshotStore, obligationSrv core.IObligationService, limiter core.IRateLimiterService, clock Clock) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/reserves", allReservesHandler(snapshots))
	router.Get("/reserves/{asset}", reserveHandler(snapshots))
	router.Get("/obligations/{id}", obligationHandler(snapshots))
	router.Get("/obligations/{id}/max-borrow", maxBorrowHandler(snapshots, obligationSrv, clock))
	router.Get("/obligations/{id}/max-withdraw", maxWithdrawHandler(snapshots, obligationSrv, clock))
	router.Get("/rate-limiter", rateLimiterHandler(snapshots, limiter, clock))
	router.Post("/rate-limiter/outflows", outflowHandler(limiter, clock))

	return router
}
