package rest

import (
	"net/http"

	"lendhub/core"
	"lendhub/handler/render"

	"github.com/go-chi/chi"
	"github.com/spf13/cast"
)

func transactionsHandler(transactionStore core.ITransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fromID := cast.ToUint64(r.URL.Query().Get("from"))
		limit := cast.ToInt(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 500
		}

		transactions, err := transactionStore.List(ctx, fromID, limit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, transactions)
	}
}

func loanTransactionsHandler(transactionStore core.ITransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit := cast.ToInt(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		transactions, err := transactionStore.ListByLoan(ctx, chi.URLParam(r, "loan_id"), limit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, transactions)
	}
}
