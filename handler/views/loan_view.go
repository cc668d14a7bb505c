package views

import (
	"lendhub/core"

	"github.com/shopspring/decimal"
)

// Loan loan view with its positions and claimable rewards
type Loan struct {
	core.Loan
	Reward decimal.Decimal `json:"reward"`
}

// NewLoan new loan view
func NewLoan(loan *core.Loan, reward *core.LoanReward) *Loan {
	v := &Loan{Loan: *loan}
	if reward != nil {
		v.Reward = reward.Amount
	}
	return v
}
