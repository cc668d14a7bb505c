package rest

import (
	"errors"
	"net/http"

	"lendhub/core"
	"lendhub/handler/render"
	"lendhub/handler/views"

	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"
)

func loanHandler(loanStore core.ILoanStore, rewardStore core.IRewardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		loanID := chi.URLParam(r, "loan_id")
		loan, err := loanStore.FindWithPositions(ctx, loanID)
		if err != nil {
			render.NotFoundRequest(w, err)
			return
		}

		// a tombstoned loan reads as unknown
		if !loan.Active {
			render.NotFoundRequest(w, errors.New("not found"))
			return
		}

		reward, err := rewardStore.FindLoanReward(ctx, loan.ID)
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, views.NewLoan(loan, reward))
	}
}

func accountLoansHandler(loanStore core.ILoanStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		loans, err := loanStore.FindByAccount(ctx, chi.URLParam(r, "account_id"))
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		items := make([]*core.Loan, 0, len(loans))
		for _, loan := range loans {
			if loan.Active {
				items = append(items, loan)
			}
		}

		render.JSON(w, items)
	}
}
