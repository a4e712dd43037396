package handler

import (
	"net/http"
	"time"

	"lendrisk/core"
	"lendrisk/handler/hc"
	"lendrisk/handler/render"
	"lendrisk/handler/rest"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server server
type Server struct {
	version       string
	snapshots     core.ISnapshotStore
	obligationSrv core.IObligationService
	limiter       core.IRateLimiterService
	clock         rest.Clock
}

// New new server function, limiter may be nil
func New(
	version string,
	snapshots core.ISnapshotStore,
	obligationSrv core.IObligationService,
	limiter core.IRateLimiterService,
) Server {
	return Server{
		version:       version,
		snapshots:     snapshots,
		obligationSrv: obligationSrv,
		limiter:       limiter,
	}
}

// Handler root handler with hc, restful apis and metrics mounted
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)

	mux.Mount("/hc", hc.Handle(s.version, s.snapshots))
	mux.Mount("/api", s.HandleRestAPI())
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// WithClock server reading time from clock instead of the wall clock
func (s Server) WithClock(clock func() time.Time) Server {
	s.clock = clock
	return s
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	api := rest.Handle(s.snapshots, s.obligationSrv, s.limiter, s.clock)
	return render.WrapResponse(true)(api)
}
