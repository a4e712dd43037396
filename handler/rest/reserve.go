package rest

import (
	"fmt"
	"net/http"
	"sort"

	"lendrisk/core"
	"lendrisk/handler/render"
	"lendrisk/handler/views"

	"github.com/go-chi/chi"
)

func allReservesHandler(snapshots core.ISnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, err := snapshots.Current(r.Context())
		if err != nil {
			render.Fail(w, err)
			return
		}

		reserveViews := make([]views.Reserve, 0, len(model.Reserves))
		for _, report := range model.Reserves {
			reserveViews = append(reserveViews, views.NewReserve(report))
		}
		sort.Slice(reserveViews, func(i, j int) bool {
			return reserveViews[i].AssetID < reserveViews[j].AssetID
		})

		render.JSON(w, reserveViews)
	}
}

func reserveHandler(snapshots core.ISnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, err := snapshots.Current(r.Context())
		if err != nil {
			render.Fail(w, err)
			return
		}

		asset := core.AssetID(chi.URLParam(r, "asset"))
		report, ok := model.Reserves[asset]
		if !ok {
			render.Fail(w, fmt.Errorf("%w: %s", core.ErrReserveNotFound, asset))
			return
		}

		render.JSON(w, views.NewReserve(report))
	}
}
