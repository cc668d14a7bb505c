package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// LoanType a risk-parameter class grouping loans.
type LoanType struct {
	ID         uint64 `sql:"PRIMARY_KEY" json:"id"`
	Name       string `sql:"size:64" json:"name"`
	Deprecated bool   `sql:"default:0" json:"deprecated"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Pools []*LoanTypePool `sql:"-" json:"pools,omitempty"`
}

// LoanTypePool per-pool risk parameters within a loan type. CollateralFactor
// discounts collateral value, BorrowFactor inflates debt value, and
// LiquidationBonus is the liquidator's seize premium; all plain decimals.
// CollateralCap bounds the USD collateral a loan type accepts per pool.
type LoanTypePool struct {
	ID                    uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanTypeID            uint64          `sql:"unique_index:idx_loan_type_pools" json:"loan_type_id"`
	PoolID                uint64          `sql:"unique_index:idx_loan_type_pools" json:"pool_id"`
	CollateralFactor      decimal.Decimal `sql:"type:decimal(20,16)" json:"collateral_factor"`
	BorrowFactor          decimal.Decimal `sql:"type:decimal(20,16)" json:"borrow_factor"`
	LiquidationBonus      decimal.Decimal `sql:"type:decimal(20,16)" json:"liquidation_bonus"`
	CollateralCap         decimal.Decimal `sql:"type:decimal(32,8)" json:"collateral_cap"`
	CollateralRewardSpeed decimal.Decimal `sql:"type:decimal(28,16)" json:"collateral_reward_speed"`
	BorrowRewardSpeed     decimal.Decimal `sql:"type:decimal(28,16)" json:"borrow_reward_speed"`
	Version               int64           `sql:"default:0" json:"version"`
	CreatedAt             time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Pool looks up the risk parameters for poolID, nil when the pool is not
// enabled for this loan type.
func (t *LoanType) Pool(poolID uint64) *LoanTypePool {
	for _, p := range t.Pools {
		if p.PoolID == poolID {
			return p
		}
	}
	return nil
}

// ILoanTypeStore loan type store interface
type ILoanTypeStore interface {
	Save(ctx context.Context, tx *db.DB, loanType *LoanType) error
	SavePool(ctx context.Context, tx *db.DB, pool *LoanTypePool) error
	Find(ctx context.Context, id uint64) (*LoanType, error)
	FindWithPools(ctx context.Context, id uint64) (*LoanType, error)
	All(ctx context.Context) ([]*LoanType, error)
}
