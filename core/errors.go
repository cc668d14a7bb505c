package core

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100002
	// ErrInvalidArgument malformed action payload
	ErrInvalidArgument ErrorCode = 100003
	// ErrInvalidPrice missing or non-positive oracle price
	ErrInvalidPrice ErrorCode = 100004

	// ErrUnknownPool no pool
	ErrUnknownPool ErrorCode = 100100
	// ErrDeprecatedPool pool retired
	ErrDeprecatedPool ErrorCode = 100101
	// ErrDepositCapReached deposit cap reached
	ErrDepositCapReached ErrorCode = 100102
	// ErrBorrowCapReached borrow cap reached
	ErrBorrowCapReached ErrorCode = 100103
	// ErrInsufficientLiquidity not enough free liquidity
	ErrInsufficientLiquidity ErrorCode = 100104
	// ErrStableBorrowNotSupported stable borrows disabled on pool
	ErrStableBorrowNotSupported ErrorCode = 100105
	// ErrStableBorrowPercentageCapExceeded stable share cap exceeded
	ErrStableBorrowPercentageCapExceeded ErrorCode = 100106
	// ErrMaxStableRateExceeded current offer rate above caller max
	ErrMaxStableRateExceeded ErrorCode = 100107
	// ErrRebalanceUpThresholdNotReached neither rebalance-up trigger met
	ErrRebalanceUpThresholdNotReached ErrorCode = 100108
	// ErrRebalanceDownThresholdNotReached loan rate below trigger
	ErrRebalanceDownThresholdNotReached ErrorCode = 100110
	// ErrRatioExceedsOne ratio precondition violated
	ErrRatioExceedsOne ErrorCode = 100111

	// ErrUnknownUserLoan no loan
	ErrUnknownUserLoan ErrorCode = 100200
	// ErrUserLoanAlreadyCreated loan id taken
	ErrUserLoanAlreadyCreated ErrorCode = 100201
	// ErrNotAccountOwner loan owned by another account
	ErrNotAccountOwner ErrorCode = 100202
	// ErrLoanNotEmpty loan still holds positions
	ErrLoanNotEmpty ErrorCode = 100203
	// ErrLoanTypeUnknown no loan type
	ErrLoanTypeUnknown ErrorCode = 100204
	// ErrLoanTypeDeprecated loan type retired
	ErrLoanTypeDeprecated ErrorCode = 100205
	// ErrSameLoan violator and liquidator are the same loan
	ErrSameLoan ErrorCode = 100206
	// ErrUnderCollateralized action would leave the loan insolvent
	ErrUnderCollateralized ErrorCode = 100207
	// ErrLoanIsHealthy liquidation target is solvent
	ErrLoanIsHealthy ErrorCode = 100208
	// ErrCollateralCapReached loan-type collateral cap reached
	ErrCollateralCapReached ErrorCode = 100209
	// ErrUnknownCollateralPosition no collateral in pool
	ErrUnknownCollateralPosition ErrorCode = 100210
	// ErrUnknownBorrowPosition no borrow in pool
	ErrUnknownBorrowPosition ErrorCode = 100211
	// ErrExcessRepaymentExceeded repay beyond owed plus allowance
	ErrExcessRepaymentExceeded ErrorCode = 100212
	// ErrSeizedLessThanMinimum computed seize below liquidator minimum
	ErrSeizedLessThanMinimum ErrorCode = 100213
	// ErrRepayExceedsMax computed repay above liquidator maximum
	ErrRepayExceedsMax ErrorCode = 100214
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}

// CapReachedError capacity violation carrying the offending values
type CapReachedError struct {
	Code    ErrorCode
	Current decimal.Decimal
	Limit   decimal.Decimal
}

func (e CapReachedError) Error() string {
	return fmt.Sprintf("%s: current %s exceeds limit %s", e.Code, e.Current, e.Limit)
}

// InsufficientLiquidityError borrow or withdraw beyond free liquidity
type InsufficientLiquidityError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("%s: requested %s, available %s", ErrInsufficientLiquidity, e.Requested, e.Available)
}

// MaxStableRateExceededError current stable offer rate above the caller's max
type MaxStableRateExceededError struct {
	Current decimal.Decimal
	Max     decimal.Decimal
}

func (e MaxStableRateExceededError) Error() string {
	return fmt.Sprintf("%s: current stable rate %s above max %s", ErrMaxStableRateExceeded, e.Current, e.Max)
}

// Code maps err to its ErrorCode for audit rows and API responses.
func Code(err error) ErrorCode {
	if err == nil {
		return 0
	}

	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}

	var cap CapReachedError
	if errors.As(err, &cap) {
		return cap.Code
	}

	var liq InsufficientLiquidityError
	if errors.As(err, &liq) {
		return ErrInsufficientLiquidity
	}

	var rate MaxStableRateExceededError
	if errors.As(err, &rate) {
		return ErrMaxStableRateExceeded
	}

	return ErrUnknown
}
