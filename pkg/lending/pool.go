package lending

import (
	"time"

	"lendhub/core"
	"lendhub/internal/hub"

	"github.com/shopspring/decimal"
)

// UpdatedDepositIndex projects the deposit index at t without mutating the
// pool. Deposit interest accrues linearly between refreshes.
func UpdatedDepositIndex(pool *core.Pool, t time.Time) decimal.Decimal {
	return hub.CompoundIndex(pool.DepositInterestRate, pool.DepositIndex, elapsedSeconds(pool, t), false)
}

// UpdatedVariableBorrowIndex projects the variable borrow index at t without
// mutating the pool. Borrow interest compounds continuously.
func UpdatedVariableBorrowIndex(pool *core.Pool, t time.Time) decimal.Decimal {
	return hub.CompoundIndex(pool.VariableBorrowInterestRate, pool.VariableBorrowIndex, elapsedSeconds(pool, t), true)
}

// AccrueInterest refreshes both indexes for the elapsed time and recomputes
// the utilisation-derived rates. Idempotent within the same timestamp.
//
// Must run before any operation that reads or mutates the pool totals, so no
// caller ever observes a stale index.
func AccrueInterest(pool *core.Pool, t time.Time) error {
	if !pool.DepositIndex.IsPositive() {
		pool.DepositIndex = decimal.New(1, 0)
	}
	if !pool.VariableBorrowIndex.IsPositive() {
		pool.VariableBorrowIndex = decimal.New(1, 0)
	}

	if elapsed := elapsedSeconds(pool, t); elapsed > 0 {
		depositIndex := hub.CompoundIndex(pool.DepositInterestRate, pool.DepositIndex, elapsed, false)
		borrowIndex := hub.CompoundIndex(pool.VariableBorrowInterestRate, pool.VariableBorrowIndex, elapsed, true)

		if err := Require(depositIndex.GreaterThanOrEqual(pool.DepositIndex), "deposit-index-monotone"); err != nil {
			return err
		}
		if err := Require(borrowIndex.GreaterThanOrEqual(pool.VariableBorrowIndex), "borrow-index-monotone"); err != nil {
			return err
		}

		pool.DepositIndex = depositIndex
		pool.VariableBorrowIndex = borrowIndex
		pool.LastUpdatedAt = t
	}

	return RecomputeRates(pool)
}

// RecomputeRates re-derives every stored rate from the current totals.
// Always called after any amount mutation.
func RecomputeRates(pool *core.Pool) error {
	ut, err := hub.UtilisationRatio(pool.TotalDebt(), pool.DepositTotal)
	if err != nil {
		return err
	}

	ratiot, err := hub.StableDebtToTotalDebtRatio(pool.StableBorrowTotal, pool.TotalDebt())
	if err != nil {
		return err
	}

	pool.VariableBorrowInterestRate = hub.VariableBorrowInterestRate(
		pool.VariableRate0, pool.VariableRate1, pool.VariableRate2,
		ut, pool.OptimalUtilisation,
	)
	pool.StableBorrowInterestRate = hub.StableBorrowInterestRate(
		pool.VariableRate1,
		pool.StableRate0, pool.StableRate1, pool.StableRate2, pool.StableRate3,
		ut, pool.OptimalUtilisation,
		ratiot, pool.OptimalStableToTotalDebtRatio,
	)

	overall := hub.OverallBorrowInterestRate(
		pool.VariableBorrowTotal, pool.StableBorrowTotal,
		pool.VariableBorrowInterestRate, pool.AverageStableInterestRate,
	)
	pool.DepositInterestRate = hub.DepositInterestRate(ut, overall, pool.RetentionRate)

	return nil
}

// UtilisationRatio current utilisation of the pool.
func UtilisationRatio(pool *core.Pool) decimal.Decimal {
	ut, err := hub.UtilisationRatio(pool.TotalDebt(), pool.DepositTotal)
	if err != nil {
		return decimal.New(1, 0)
	}
	return ut
}

func elapsedSeconds(pool *core.Pool, t time.Time) int64 {
	if pool.LastUpdatedAt.IsZero() {
		return 0
	}
	return int64(t.Sub(pool.LastUpdatedAt) / time.Second)
}
