package rest

import (
	"net/http"
	"time"

	"lendhub/core"
	"lendhub/handler/render"
	"lendhub/handler/views"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

func allPoolsHandler(poolStore core.IPoolStore, priceService core.IPriceOracleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		pools, err := poolStore.All(ctx)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		now := time.Now()
		items := make([]*views.Pool, 0, len(pools))
		for _, pool := range pools {
			price, err := priceService.GetPrice(ctx, pool.ID)
			if err != nil {
				price = decimal.Zero
			}
			items = append(items, views.NewPool(pool, price, now))
		}

		render.JSON(w, items)
	}
}

func poolHandler(poolStore core.IPoolStore, priceService core.IPriceOracleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		poolID := cast.ToUint64(chi.URLParam(r, "pool_id"))
		pool, err := poolStore.Find(ctx, poolID)
		if err != nil {
			render.NotFoundRequest(w, err)
			return
		}

		price, err := priceService.GetPrice(ctx, pool.ID)
		if err != nil {
			price = decimal.Zero
		}

		render.JSON(w, views.NewPool(pool, price, time.Now()))
	}
}
