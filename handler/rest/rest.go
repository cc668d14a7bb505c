package rest

import (
	"errors"
	"net/http"

	"lendhub/core"
	"lendhub/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	poolStore core.IPoolStore,
	loanStore core.ILoanStore,
	rewardStore core.IRewardStore,
	transactionStore core.ITransactionStore,
	priceService core.IPriceOracleService) http.Handler {

	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/pools", allPoolsHandler(poolStore, priceService))
	router.Get("/pools/{pool_id}", poolHandler(poolStore, priceService))
	router.Get("/loans/{loan_id}", loanHandler(loanStore, rewardStore))
	router.Get("/accounts/{account_id}/loans", accountLoansHandler(loanStore))
	router.Get("/transactions", transactionsHandler(transactionStore))
	router.Get("/loans/{loan_id}/transactions", loanTransactionsHandler(transactionStore))

	return router
}
