package lending

import (
	"time"

	"lendhub/core"
	"lendhub/internal/hub"
	"lendhub/pkg/number"

	"github.com/shopspring/decimal"
)

// BorrowBalance the amount owed on a borrow position at t, replaying index
// growth since the position's snapshot. Variable borrows follow the pool
// index; stable borrows compound at the locked rate. Rounds up so debt is
// never understated.
func BorrowBalance(b *core.LoanBorrow, pool *core.Pool, t time.Time) decimal.Decimal {
	if !b.Balance.IsPositive() {
		return decimal.Zero
	}

	if b.Stable {
		elapsed := int64(t.Sub(b.LastStableUpdatedAt) / time.Second)
		factor := hub.CompoundFactor(b.StableInterestRate, elapsed, true)
		return number.Ceil(b.Balance.Mul(factor), hub.MaxPrecision)
	}

	if !b.LastInterestIndex.IsPositive() {
		return b.Balance
	}

	index := UpdatedVariableBorrowIndex(pool, t)
	grown := b.Balance.Mul(index).DivRound(b.LastInterestIndex, hub.MaxPrecision+8)
	return number.Ceil(grown, hub.MaxPrecision)
}

// SettleBorrowInterest folds accrued interest into the position balance and
// advances the snapshots, returning the interest accrued since the last
// settlement.
func SettleBorrowInterest(b *core.LoanBorrow, pool *core.Pool, t time.Time) decimal.Decimal {
	balance := BorrowBalance(b, pool, t)
	interest := number.NonNegative(balance.Sub(b.Balance))

	b.Balance = balance
	if b.Stable {
		b.LastStableUpdatedAt = t
	} else {
		b.LastInterestIndex = UpdatedVariableBorrowIndex(pool, t)
	}

	return interest
}
