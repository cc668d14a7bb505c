package hub

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// SecondsPerYear seconds per year used for rate-to-elapsed scaling
	SecondsPerYear = decimal.NewFromInt(365 * 24 * 60 * 60)
	// MaxPrecision max precision kept on rates and indexes
	MaxPrecision int32 = 16

	one = decimal.New(1, 0)
	two = decimal.New(2, 0)
)

// ErrRatioExceedsOne numerator greater than denominator
type ErrRatioExceedsOne struct {
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

func (e ErrRatioExceedsOne) Error() string {
	return fmt.Sprintf("ratio exceeds one: %s/%s", e.Numerator, e.Denominator)
}

// Ratio numerator/denominator bounded to [0, 1].
// A zero denominator yields zero, never a fault.
func Ratio(numerator, denominator decimal.Decimal) (decimal.Decimal, error) {
	if numerator.GreaterThan(denominator) {
		return decimal.Zero, ErrRatioExceedsOne{Numerator: numerator, Denominator: denominator}
	}

	if !denominator.IsPositive() {
		return decimal.Zero, nil
	}

	return numerator.Div(denominator).Truncate(MaxPrecision), nil
}

// UtilisationRatio total_debt / total_deposits
func UtilisationRatio(totalDebt, totalDeposits decimal.Decimal) (decimal.Decimal, error) {
	return Ratio(totalDebt, totalDeposits)
}

// StableDebtToTotalDebtRatio total_stable_debt / total_debt
func StableDebtToTotalDebtRatio(totalStableDebt, totalDebt decimal.Decimal) (decimal.Decimal, error) {
	return Ratio(totalStableDebt, totalDebt)
}

// VariableBorrowInterestRate two-slope curve with a kink at the optimal
// utilisation ratio:
//
//	ut <  uopt: vr0 + vr1 * ut/uopt
//	ut >= uopt: vr0 + vr1 + vr2 * (ut-uopt)/(1-uopt)
func VariableBorrowInterestRate(vr0, vr1, vr2, ut, uopt decimal.Decimal) decimal.Decimal {
	if ut.LessThan(uopt) {
		if !uopt.IsPositive() {
			return vr0.Truncate(MaxPrecision)
		}
		return vr0.Add(vr1.Mul(ut).Div(uopt)).Truncate(MaxPrecision)
	}

	remaining := one.Sub(uopt)
	if !remaining.IsPositive() {
		return vr0.Add(vr1).Truncate(MaxPrecision)
	}

	excess := ut.Sub(uopt)
	return vr0.Add(vr1).Add(vr2.Mul(excess).Div(remaining)).Truncate(MaxPrecision)
}

// StableBorrowInterestRate offer rate for new stable borrows. Builds on the
// variable slope-one term plus the stable curve, with an extra penalty when
// the stable share of total debt exceeds its optimum.
func StableBorrowInterestRate(vr1, sr0, sr1, sr2, sr3, ut, uopt, ratiot, ratioopt decimal.Decimal) decimal.Decimal {
	rate := vr1.Add(sr0)

	if ut.LessThan(uopt) {
		if uopt.IsPositive() {
			rate = rate.Add(sr1.Mul(ut).Div(uopt))
		}
	} else {
		rate = rate.Add(sr1)
		if remaining := one.Sub(uopt); remaining.IsPositive() {
			rate = rate.Add(sr2.Mul(ut.Sub(uopt)).Div(remaining))
		}
	}

	if ratiot.GreaterThan(ratioopt) {
		if remaining := one.Sub(ratioopt); remaining.IsPositive() {
			rate = rate.Add(sr3.Mul(ratiot.Sub(ratioopt)).Div(remaining))
		}
	}

	return rate.Truncate(MaxPrecision)
}

// OverallBorrowInterestRate amount-weighted average of the variable rate and
// the average stable rate. Zero when the pool has no debt.
func OverallBorrowInterestRate(totalVariable, totalStable, variableRate, averageStableRate decimal.Decimal) decimal.Decimal {
	totalDebt := totalVariable.Add(totalStable)
	if !totalDebt.IsPositive() {
		return decimal.Zero
	}

	weighted := totalVariable.Mul(variableRate).Add(totalStable.Mul(averageStableRate))
	return weighted.Div(totalDebt).Truncate(MaxPrecision)
}

// DepositInterestRate share of the overall borrow rate flowing to depositors
// after the protocol retention cut.
func DepositInterestRate(utilisationRatio, overallBorrowRate, retentionRate decimal.Decimal) decimal.Decimal {
	return overallBorrowRate.
		Mul(utilisationRatio).
		Mul(one.Sub(retentionRate)).
		Truncate(MaxPrecision)
}

// CompoundFactor growth factor for rate over secondsElapsed. When compounding,
// approximates e^(rate*t) with its second-order Taylor expansion
// 1 + x + x^2/2; otherwise linear 1 + x. Monotonically increasing in
// secondsElapsed for a positive rate.
func CompoundFactor(rate decimal.Decimal, secondsElapsed int64, compounding bool) decimal.Decimal {
	if secondsElapsed <= 0 || !rate.IsPositive() {
		return one
	}

	x := rate.Mul(decimal.NewFromInt(secondsElapsed)).Div(SecondsPerYear)
	if !compounding {
		return one.Add(x).Truncate(MaxPrecision)
	}

	return one.Add(x).Add(x.Mul(x).Div(two)).Truncate(MaxPrecision)
}

// CompoundIndex applies the growth factor to oldIndex, rounding the increment
// up so a refresh never loses accrued interest.
func CompoundIndex(rate, oldIndex decimal.Decimal, secondsElapsed int64, compounding bool) decimal.Decimal {
	factor := CompoundFactor(rate, secondsElapsed, compounding)
	increment := oldIndex.Mul(factor.Sub(one)).
		Shift(MaxPrecision).Ceil().Shift(-MaxPrecision)
	return oldIndex.Add(increment)
}

// IncreasingAverageStableRate new weighted average after amountAdded joins at
// rateOfAdded.
func IncreasingAverageStableRate(amountAdded, rateOfAdded, totalBefore, avgBefore decimal.Decimal) decimal.Decimal {
	totalAfter := totalBefore.Add(amountAdded)
	if !totalAfter.IsPositive() {
		return decimal.Zero
	}

	weighted := avgBefore.Mul(totalBefore).Add(rateOfAdded.Mul(amountAdded))
	return weighted.Div(totalAfter).Truncate(MaxPrecision)
}

// DecreasingAverageStableRate new weighted average after amountRemoved leaves
// at rateOfRemoved. Defined as zero when the remaining total is zero, and the
// weighted numerator clamps at zero when rounding would push it negative.
func DecreasingAverageStableRate(amountRemoved, rateOfRemoved, totalBefore, avgBefore decimal.Decimal) decimal.Decimal {
	totalAfter := totalBefore.Sub(amountRemoved)
	if !totalAfter.IsPositive() {
		return decimal.Zero
	}

	weighted := avgBefore.Mul(totalBefore).Sub(rateOfRemoved.Mul(amountRemoved))
	if weighted.IsNegative() {
		return decimal.Zero
	}

	return weighted.Div(totalAfter).Truncate(MaxPrecision)
}

// ToReceiptAmount converts underlying units into receipt units through the
// deposit index. Round up when burning receipts for a withdrawal, down when
// minting on a deposit, so rounding never favours the caller.
func ToReceiptAmount(underlyingAmount, index decimal.Decimal, roundUp bool) decimal.Decimal {
	if !index.IsPositive() {
		return decimal.Zero
	}

	// divide past the kept precision, otherwise the quotient is already
	// rounded at digit 16 and the directional rounding below has nothing
	// left to decide
	r := underlyingAmount.DivRound(index, MaxPrecision+8)
	if roundUp {
		return r.Shift(MaxPrecision).Ceil().Shift(-MaxPrecision)
	}
	return r.Truncate(MaxPrecision)
}

// ToUnderlyingAmount converts receipt units back into underlying units,
// truncating in the pool's favour.
func ToUnderlyingAmount(receiptAmount, index decimal.Decimal) decimal.Decimal {
	return receiptAmount.Mul(index).Truncate(MaxPrecision)
}

// FlashLoanFeeAmount fee owed on a flash loan of amount at feeRate.
func FlashLoanFeeAmount(amount, feeRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(feeRate).Truncate(MaxPrecision)
}

// RebalanceUpThreshold deposit-rate trigger for a permissionless rebalance up,
// a configured fraction of the maximum variable rate.
func RebalanceUpThreshold(rebalanceUpDepositInterestRate, vr0, vr1, vr2 decimal.Decimal) decimal.Decimal {
	return rebalanceUpDepositInterestRate.
		Mul(vr0.Add(vr1).Add(vr2)).
		Truncate(MaxPrecision)
}

// RebalanceDownThreshold stable-rate trigger for a permissionless rebalance
// down: the loan's locked rate must exceed (1+delta) times the current offer.
func RebalanceDownThreshold(rebalanceDownDelta, currentStableOfferRate decimal.Decimal) decimal.Decimal {
	return one.Add(rebalanceDownDelta).
		Mul(currentStableOfferRate).
		Truncate(MaxPrecision)
}
