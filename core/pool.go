package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Pool one lending market: a deposit ledger, a variable-borrow ledger, a
// stable-borrow ledger, fee retention and caps. Amounts are underlying units
// except where noted; rates are annual decimals; indexes start at 1.
type Pool struct {
	ID             uint64    `sql:"PRIMARY_KEY" json:"id"`
	Symbol         string    `sql:"size:20;unique_index:symbol_idx" json:"symbol"`
	AssetID        string    `sql:"size:36;unique_index:asset_idx" json:"asset_id"`
	ReceiptAssetID string    `sql:"size:36" json:"receipt_asset_id"`
	LastUpdatedAt  time.Time `sql:"default:CURRENT_TIMESTAMP" json:"last_updated_at"`

	// deposit ledger
	DepositTotal        decimal.Decimal `sql:"type:decimal(32,16)" json:"deposit_total"`
	DepositInterestRate decimal.Decimal `sql:"type:decimal(20,16)" json:"deposit_interest_rate"`
	DepositIndex        decimal.Decimal `sql:"type:decimal(28,16);default:1" json:"deposit_index"`
	OptimalUtilisation  decimal.Decimal `sql:"type:decimal(20,16)" json:"optimal_utilisation"`

	// variable borrow ledger, vr0/vr1/vr2 are the two-slope curve params
	VariableBorrowTotal        decimal.Decimal `sql:"type:decimal(32,16)" json:"variable_borrow_total"`
	VariableRate0              decimal.Decimal `sql:"type:decimal(20,16)" json:"variable_rate_0"`
	VariableRate1              decimal.Decimal `sql:"type:decimal(20,16)" json:"variable_rate_1"`
	VariableRate2              decimal.Decimal `sql:"type:decimal(20,16)" json:"variable_rate_2"`
	VariableBorrowInterestRate decimal.Decimal `sql:"type:decimal(20,16)" json:"variable_borrow_interest_rate"`
	VariableBorrowIndex        decimal.Decimal `sql:"type:decimal(28,16);default:1" json:"variable_borrow_index"`

	// stable borrow ledger
	StableBorrowTotal              decimal.Decimal `sql:"type:decimal(32,16)" json:"stable_borrow_total"`
	StableRate0                    decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_rate_0"`
	StableRate1                    decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_rate_1"`
	StableRate2                    decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_rate_2"`
	StableRate3                    decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_rate_3"`
	OptimalStableToTotalDebtRatio  decimal.Decimal `sql:"type:decimal(20,16)" json:"optimal_stable_to_total_debt_ratio"`
	RebalanceUpUtilisationRatio    decimal.Decimal `sql:"type:decimal(20,16)" json:"rebalance_up_utilisation_ratio"`
	RebalanceUpDepositInterestRate decimal.Decimal `sql:"type:decimal(20,16)" json:"rebalance_up_deposit_interest_rate"`
	RebalanceDownDelta             decimal.Decimal `sql:"type:decimal(20,16)" json:"rebalance_down_delta"`
	StableBorrowInterestRate       decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_borrow_interest_rate"`
	AverageStableInterestRate      decimal.Decimal `sql:"type:decimal(20,16)" json:"average_stable_interest_rate"`

	// fee ledger
	FlashLoanFee  decimal.Decimal `sql:"type:decimal(20,16)" json:"flash_loan_fee"`
	RetentionRate decimal.Decimal `sql:"type:decimal(20,16)" json:"retention_rate"`
	FeeRecipient  string          `sql:"size:36" json:"fee_recipient"`
	RetainedFees  decimal.Decimal `sql:"type:decimal(32,16)" json:"retained_fees"`

	// caps; deposit and borrow caps are USD-normalized
	DepositCap                decimal.Decimal `sql:"type:decimal(32,8)" json:"deposit_cap"`
	BorrowCap                 decimal.Decimal `sql:"type:decimal(32,8)" json:"borrow_cap"`
	StableBorrowPercentageCap decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_borrow_percentage_cap"`

	// config flags
	Deprecated            bool `sql:"default:0" json:"deprecated"`
	StableBorrowSupported bool `sql:"default:1" json:"stable_borrow_supported"`
	CanMintReceipt        bool `sql:"default:1" json:"can_mint_receipt"`
	FlashLoanSupported    bool `sql:"default:0" json:"flash_loan_supported"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TotalDebt variable plus stable outstanding principal
func (p *Pool) TotalDebt() decimal.Decimal {
	return p.VariableBorrowTotal.Add(p.StableBorrowTotal)
}

// AvailableLiquidity deposits not yet lent out
func (p *Pool) AvailableLiquidity() decimal.Decimal {
	return p.DepositTotal.Sub(p.TotalDebt())
}

// PoolBorrowSnapshot index and rate snapshotted onto the loan at borrow time
type PoolBorrowSnapshot struct {
	VariableBorrowIndex decimal.Decimal
	StableBorrowRate    decimal.Decimal
}

// IPoolStore pool store interface
type IPoolStore interface {
	Save(ctx context.Context, tx *db.DB, pool *Pool) error
	Find(ctx context.Context, id uint64) (*Pool, error)
	FindByAssetID(ctx context.Context, assetID string) (*Pool, error)
	All(ctx context.Context) ([]*Pool, error)
	AllAsMap(ctx context.Context) (map[uint64]*Pool, error)
	Update(ctx context.Context, tx *db.DB, pool *Pool) error
}

// IPoolService the pool accounting engine. Operations mutate the passed pool
// in memory; persistence stays with the caller so one action commits at once.
type IPoolService interface {
	// AccrueInterest refreshes both interest indexes for the elapsed time and
	// recomputes the utilisation-derived rates. No-op on indexes when no time
	// has passed. Must run before any operation reading or mutating totals.
	AccrueInterest(ctx context.Context, pool *Pool, at time.Time) error
	// UpdatedDepositIndex projects the deposit index at the given time
	// without mutating the pool.
	UpdatedDepositIndex(pool *Pool, at time.Time) decimal.Decimal
	// UpdatedVariableBorrowIndex projects the variable borrow index likewise.
	UpdatedVariableBorrowIndex(pool *Pool, at time.Time) decimal.Decimal

	// ApplyDeposit checks the deprecated flag and the USD deposit cap, then
	// credits the deposit ledger. Returns the receipt amount minted.
	ApplyDeposit(ctx context.Context, pool *Pool, amount decimal.Decimal) (decimal.Decimal, error)
	// ApplyWithdraw debits the deposit ledger, clamping at zero on rounding
	// underflow.
	ApplyWithdraw(ctx context.Context, pool *Pool, underlyingAmount decimal.Decimal) error
	// PrepareBorrow validates liquidity, caps and the stable rate bound and
	// returns the index/rate snapshot for the loan side. Mutates nothing.
	PrepareBorrow(ctx context.Context, pool *Pool, amount decimal.Decimal, stable bool, maxStableRate decimal.Decimal) (*PoolBorrowSnapshot, error)
	// ApplyBorrow credits the matching borrow ledger and refreshes the
	// average stable rate when stable.
	ApplyBorrow(ctx context.Context, pool *Pool, amount decimal.Decimal, stable bool, stableRate decimal.Decimal) error
	// ApplyRepay debits the matching borrow ledger, returns repaid interest
	// to the deposit ledger and retains any over-repayment as fees.
	ApplyRepay(ctx context.Context, pool *Pool, principalPaid, interestPaid, excessAmount decimal.Decimal, stable bool, loanStableRate decimal.Decimal) error
	// ApplyLiquidation recomputes rates after liquidation adjusted amounts.
	ApplyLiquidation(ctx context.Context, pool *Pool) error
	// ApplySwitchBorrowType moves amount between the two borrow ledgers,
	// validating the stable-side config when switching to stable.
	ApplySwitchBorrowType(ctx context.Context, pool *Pool, amount decimal.Decimal, toStable bool, oldStableRate, newStableRate decimal.Decimal) error
	// ValidateRebalanceUp checks the pool-level trigger conditions.
	ValidateRebalanceUp(ctx context.Context, pool *Pool) error
	// ValidateRebalanceDown checks the loan's rate against the down trigger.
	ValidateRebalanceDown(ctx context.Context, pool *Pool, loanStableRate decimal.Decimal) error
	// ApplyRebalance re-weights the average stable rate when a single loan
	// moves from oldRate to the current offer rate.
	ApplyRebalance(ctx context.Context, pool *Pool, amount, oldRate, newRate decimal.Decimal) error
	// ClearFees returns and zeroes the retained fee ledger.
	ClearFees(ctx context.Context, pool *Pool) decimal.Decimal
}
