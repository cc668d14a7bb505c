package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// PoolReward global reward indexes for one (loan type, pool) pair. Indexes
// advance with time and the configured emission speeds, independent of any
// individual loan.
type PoolReward struct {
	ID                    uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanTypeID            uint64          `sql:"unique_index:idx_pool_rewards" json:"loan_type_id"`
	PoolID                uint64          `sql:"unique_index:idx_pool_rewards" json:"pool_id"`
	CollateralRewardIndex decimal.Decimal `sql:"type:decimal(28,16)" json:"collateral_reward_index"`
	BorrowRewardIndex     decimal.Decimal `sql:"type:decimal(28,16)" json:"borrow_reward_index"`
	LastUpdatedAt         time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"last_updated_at"`
	Version               int64           `sql:"default:0" json:"version"`
	CreatedAt             time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// LoanReward claimable rewards accumulated for one loan.
type LoanReward struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanID    string          `sql:"size:36;unique_index:idx_loan_rewards" json:"loan_id"`
	Amount    decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IRewardStore reward store interface
type IRewardStore interface {
	SavePoolReward(ctx context.Context, tx *db.DB, reward *PoolReward) error
	FindPoolReward(ctx context.Context, loanTypeID, poolID uint64) (*PoolReward, error)
	PoolRewardsByLoanType(ctx context.Context, loanTypeID uint64) ([]*PoolReward, error)
	SaveLoanReward(ctx context.Context, tx *db.DB, reward *LoanReward) error
	FindLoanReward(ctx context.Context, loanID string) (*LoanReward, error)
}

// IRewardService the reward accrual engine, decoupled from the interest path.
type IRewardService interface {
	// UpdatePoolRewardIndexes advances the global indexes for elapsed time,
	// spreading each emission speed over the pool's current total. O(1) per
	// pool, idempotent within the same timestamp.
	UpdatePoolRewardIndexes(ctx context.Context, reward *PoolReward, pool *Pool, loanTypePool *LoanTypePool, at time.Time)
	// SettleLoan accrues (globalIndex - positionIndex) * balance for every
	// position into claim and advances the position indexes. Safe to call
	// repeatedly; a caught-up loan accrues nothing.
	SettleLoan(ctx context.Context, loan *Loan, rewards map[uint64]*PoolReward, claim *LoanReward)
}
