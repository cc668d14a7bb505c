package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Loan one user position: collateral and borrows across pools. A deleted loan
// keeps its row as a tombstone with Active false and no positions.
type Loan struct {
	ID         string `sql:"size:36;PRIMARY_KEY" json:"id"`
	AccountID  string `sql:"size:36;index:idx_loans_account" json:"account_id"`
	LoanTypeID uint64 `json:"loan_type_id"`
	Active     bool   `sql:"default:1" json:"active"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Collaterals []*LoanCollateral `sql:"-" json:"collaterals,omitempty"`
	Borrows     []*LoanBorrow     `sql:"-" json:"borrows,omitempty"`
}

// LoanCollateral per-pool collateral position in receipt units
type LoanCollateral struct {
	ID          uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanID      string          `sql:"size:36;unique_index:idx_loan_collaterals" json:"loan_id"`
	PoolID      uint64          `sql:"unique_index:idx_loan_collaterals" json:"pool_id"`
	Balance     decimal.Decimal `sql:"type:decimal(32,16)" json:"balance"`
	RewardIndex decimal.Decimal `sql:"type:decimal(28,16)" json:"reward_index"`
	Version     int64           `sql:"default:0" json:"version"`
	CreatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// LoanBorrow per-pool borrow position. Amount is principal excluding
// interest, Balance includes accrued interest up to the recorded snapshot.
type LoanBorrow struct {
	ID                  uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanID              string          `sql:"size:36;unique_index:idx_loan_borrows" json:"loan_id"`
	PoolID              uint64          `sql:"unique_index:idx_loan_borrows" json:"pool_id"`
	Amount              decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Balance             decimal.Decimal `sql:"type:decimal(32,16)" json:"balance"`
	LastInterestIndex   decimal.Decimal `sql:"type:decimal(28,16);default:1" json:"last_interest_index"`
	Stable              bool            `sql:"default:0" json:"stable"`
	StableInterestRate  decimal.Decimal `sql:"type:decimal(20,16)" json:"stable_interest_rate"`
	LastStableUpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"last_stable_updated_at"`
	RewardIndex         decimal.Decimal `sql:"type:decimal(28,16)" json:"reward_index"`
	Version             int64           `sql:"default:0" json:"version"`
	CreatedAt           time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Collateral looks up the collateral position for poolID, nil when absent.
func (l *Loan) Collateral(poolID uint64) *LoanCollateral {
	for _, c := range l.Collaterals {
		if c.PoolID == poolID {
			return c
		}
	}
	return nil
}

// Borrow looks up the borrow position for poolID, nil when absent.
func (l *Loan) Borrow(poolID uint64) *LoanBorrow {
	for _, b := range l.Borrows {
		if b.PoolID == poolID {
			return b
		}
	}
	return nil
}

// RemoveCollateral drops the collateral position for poolID.
func (l *Loan) RemoveCollateral(poolID uint64) {
	out := l.Collaterals[:0]
	for _, c := range l.Collaterals {
		if c.PoolID != poolID {
			out = append(out, c)
		}
	}
	l.Collaterals = out
}

// RemoveBorrow drops the borrow position for poolID.
func (l *Loan) RemoveBorrow(poolID uint64) {
	out := l.Borrows[:0]
	for _, b := range l.Borrows {
		if b.PoolID != poolID {
			out = append(out, b)
		}
	}
	l.Borrows = out
}

// IsEmpty reports whether the loan holds no positions.
func (l *Loan) IsEmpty() bool {
	return len(l.Collaterals) == 0 && len(l.Borrows) == 0
}

// PoolIDs all pools this loan touches.
func (l *Loan) PoolIDs() []uint64 {
	seen := make(map[uint64]bool)
	ids := make([]uint64, 0, len(l.Collaterals)+len(l.Borrows))
	for _, c := range l.Collaterals {
		if !seen[c.PoolID] {
			seen[c.PoolID] = true
			ids = append(ids, c.PoolID)
		}
	}
	for _, b := range l.Borrows {
		if !seen[b.PoolID] {
			seen[b.PoolID] = true
			ids = append(ids, b.PoolID)
		}
	}
	return ids
}

// WithdrawResult amounts debited by a withdrawal
type WithdrawResult struct {
	ReceiptBurned       decimal.Decimal
	UnderlyingWithdrawn decimal.Decimal
}

// BorrowResult snapshot recorded on the borrow position
type BorrowResult struct {
	Stable     bool
	StableRate decimal.Decimal
}

// RepayResult breakdown of a repayment
type RepayResult struct {
	PrincipalPaid  decimal.Decimal
	InterestPaid   decimal.Decimal
	ExcessRetained decimal.Decimal
	PositionClosed bool
}

// LiquidationResult amounts moved by a liquidation
type LiquidationResult struct {
	RepayPrincipal decimal.Decimal
	RepayInterest  decimal.Decimal
	SeizedReceipt  decimal.Decimal
}

// ILoanStore loan store interface. FindWithPositions loads the aggregate.
type ILoanStore interface {
	Create(ctx context.Context, tx *db.DB, loan *Loan) error
	Find(ctx context.Context, loanID string) (*Loan, error)
	FindWithPositions(ctx context.Context, loanID string) (*Loan, error)
	FindByAccount(ctx context.Context, accountID string) ([]*Loan, error)
	AllActive(ctx context.Context) ([]*Loan, error)
	Update(ctx context.Context, tx *db.DB, loan *Loan) error
	SaveCollateral(ctx context.Context, tx *db.DB, collateral *LoanCollateral) error
	DeleteCollateral(ctx context.Context, tx *db.DB, loanID string, poolID uint64) error
	SaveBorrow(ctx context.Context, tx *db.DB, borrow *LoanBorrow) error
	DeleteBorrow(ctx context.Context, tx *db.DB, loanID string, poolID uint64) error
}

// ILoanService the loan risk engine. Operations mutate the passed aggregates
// in memory and call into IPoolService; they never mutate pool fields
// directly. Persistence stays with the caller.
type ILoanService interface {
	CreateLoan(ctx context.Context, accountID, nonce string, loanType *LoanType) (*Loan, error)
	DeleteLoan(ctx context.Context, loan *Loan) error

	// Deposit credits collateral, enforcing the loan-type collateral cap.
	Deposit(ctx context.Context, loan *Loan, pool *Pool, loanType *LoanType, amount, rewardIndex decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, loan *Loan, pools map[uint64]*Pool, loanType *LoanType, poolID uint64, amount decimal.Decimal, isReceiptAmount, checkOverCollateralization bool) (*WithdrawResult, error)
	// Borrow takes a stable borrow when maxStableRate is positive, a variable
	// borrow otherwise.
	Borrow(ctx context.Context, loan *Loan, pools map[uint64]*Pool, loanType *LoanType, poolID uint64, amount, maxStableRate, rewardIndex decimal.Decimal) (*BorrowResult, error)
	Repay(ctx context.Context, loan *Loan, pool *Pool, amount, maxOverRepayment decimal.Decimal) (*RepayResult, error)
	RepayWithCollateral(ctx context.Context, loan *Loan, pool *Pool, amount decimal.Decimal) (*RepayResult, error)
	Liquidate(ctx context.Context, violator, liquidator *Loan, pools map[uint64]*Pool, loanType *LoanType, colPoolID, borPoolID uint64, maxRepayAmount, minSeizedAmount, colRewardIndex decimal.Decimal) (*LiquidationResult, error)
	SwitchBorrowType(ctx context.Context, loan *Loan, pool *Pool, maxStableRate decimal.Decimal) error
	RebalanceUp(ctx context.Context, loan *Loan, pool *Pool) error
	RebalanceDown(ctx context.Context, loan *Loan, pool *Pool) error

	// IsOverCollateralized reports whether risk-weighted collateral covers
	// risk-weighted debt at current oracle prices.
	IsOverCollateralized(ctx context.Context, loan *Loan, pools map[uint64]*Pool, loanType *LoanType) (bool, error)
}
