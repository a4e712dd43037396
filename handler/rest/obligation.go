package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lendrisk/core"
	"lendrisk/handler/param"
	"lendrisk/handler/render"
	"lendrisk/handler/views"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
)

func findObligation(ctx context.Context, snapshots core.ISnapshotStore, id string) (*core.ReadModel, core.ObligationReport, error) {
	model, err := snapshots.Current(ctx)
	if err != nil {
		return nil, core.ObligationReport{}, err
	}

	report, ok := model.Obligations[id]
	if !ok {
		return nil, core.ObligationReport{}, fmt.Errorf("obligation %s: %w", id, core.ErrCodeObligationNotFound)
	}

	return model, report, nil
}

func obligationHandler(snapshots core.ISnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, report, err := findObligation(r.Context(), snapshots, chi.URLParam(r, "id"))
		if err != nil {
			render.Fail(w, err)
			return
		}

		render.JSON(w, views.NewObligation(report, model.TimestampS))
	}
}

type maxActionFunc func(ctx context.Context, obligation core.Obligation, reserves core.Reserves, asset core.AssetID, now uint64) (uint64, error)

func maxBorrowHandler(snapshots core.ISnapshotStore, obligationSrv core.IObligationService, clock Clock) http.HandlerFunc {
	return maxActionHandler(snapshots, obligationSrv.MaxBorrow, clock)
}

func maxWithdrawHandler(snapshots core.ISnapshotStore, obligationSrv core.IObligationService, clock Clock) http.HandlerFunc {
	return maxActionHandler(snapshots, obligationSrv.MaxWithdraw, clock)
}

// maxActionHandler checks staleness against the wall clock, a snapshot the poller
// stopped refreshing is refused once its inputs age past the bound
func maxActionHandler(snapshots core.ISnapshotStore, fn maxActionFunc, clock Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params struct {
			Asset string `json:"asset"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		asset, err := core.NewAssetID(params.Asset)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		model, report, err := findObligation(ctx, snapshots, chi.URLParam(r, "id"))
		if err != nil {
			render.Fail(w, err)
			return
		}

		view := views.MaxAction{
			ObligationID: report.Obligation.ID,
			AssetID:      asset,
			Converged:    true,
			TimestampS:   model.TimestampS,
		}

		amount, err := fn(ctx, report.Obligation, model.RefreshedReserves(), asset, clock.Now())
		if err != nil {
			if !errors.Is(err, core.ErrSolverDidNotConverge) {
				render.Fail(w, err)
				return
			}

			logger.FromContext(ctx).WithError(err).Warnln("serve safe lower bound")
			view.Converged = false
		}

		view.Amount = amount
		render.JSON(w, view)
	}
}
