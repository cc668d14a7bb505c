package views

import (
	"time"

	"lendhub/core"
	"lendhub/pkg/lending"

	"github.com/shopspring/decimal"
)

// Pool pool view with projected indexes so viewers never read stale state
type Pool struct {
	core.Pool
	ProjectedDepositIndex        decimal.Decimal `json:"projected_deposit_index"`
	ProjectedVariableBorrowIndex decimal.Decimal `json:"projected_variable_borrow_index"`
	UtilisationRatio             decimal.Decimal `json:"utilisation_ratio"`
	AvailableLiquidity           decimal.Decimal `json:"available_liquidity"`
	Price                        decimal.Decimal `json:"price"`
}

// NewPool new pool view projected to t
func NewPool(pool *core.Pool, price decimal.Decimal, t time.Time) *Pool {
	return &Pool{
		Pool:                         *pool,
		ProjectedDepositIndex:        lending.UpdatedDepositIndex(pool, t),
		ProjectedVariableBorrowIndex: lending.UpdatedVariableBorrowIndex(pool, t),
		UtilisationRatio:             lending.UtilisationRatio(pool),
		AvailableLiquidity:           pool.AvailableLiquidity(),
		Price:                        price,
	}
}
