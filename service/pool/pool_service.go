package pool

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/internal/hub"
	"lendhub/pkg/lending"
	"lendhub/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type poolService struct {
	priceService core.IPriceOracleService
}

// New new pool service
func New(priceService core.IPriceOracleService) core.IPoolService {
	return &poolService{
		priceService: priceService,
	}
}

func (s *poolService) AccrueInterest(ctx context.Context, pool *core.Pool, at time.Time) error {
	return lending.AccrueInterest(pool, at)
}

func (s *poolService) UpdatedDepositIndex(pool *core.Pool, at time.Time) decimal.Decimal {
	return lending.UpdatedDepositIndex(pool, at)
}

func (s *poolService) UpdatedVariableBorrowIndex(pool *core.Pool, at time.Time) decimal.Decimal {
	return lending.UpdatedVariableBorrowIndex(pool, at)
}

func (s *poolService) ApplyDeposit(ctx context.Context, pool *core.Pool, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, core.ErrInvalidAmount
	}

	if pool.Deprecated {
		return decimal.Zero, core.ErrDeprecatedPool
	}

	if pool.DepositCap.IsPositive() {
		value, err := s.usdValue(ctx, pool, pool.DepositTotal.Add(amount))
		if err != nil {
			return decimal.Zero, err
		}
		if value.GreaterThan(pool.DepositCap) {
			return decimal.Zero, core.CapReachedError{
				Code:    core.ErrDepositCapReached,
				Current: value,
				Limit:   pool.DepositCap,
			}
		}
	}

	receipt := hub.ToReceiptAmount(amount, pool.DepositIndex, false)

	pool.DepositTotal = pool.DepositTotal.Add(amount)
	if err := lending.RecomputeRates(pool); err != nil {
		return decimal.Zero, err
	}

	return receipt, nil
}

func (s *poolService) ApplyWithdraw(ctx context.Context, pool *core.Pool, underlyingAmount decimal.Decimal) error {
	if !underlyingAmount.IsPositive() {
		return core.ErrInvalidAmount
	}

	if available := pool.AvailableLiquidity(); underlyingAmount.GreaterThan(available) {
		return core.InsufficientLiquidityError{
			Requested: underlyingAmount,
			Available: available,
		}
	}

	pool.DepositTotal = number.NonNegative(pool.DepositTotal.Sub(underlyingAmount))
	return lending.RecomputeRates(pool)
}

func (s *poolService) PrepareBorrow(ctx context.Context, pool *core.Pool, amount decimal.Decimal, stable bool, maxStableRate decimal.Decimal) (*core.PoolBorrowSnapshot, error) {
	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	if pool.Deprecated {
		return nil, core.ErrDeprecatedPool
	}

	if available := pool.AvailableLiquidity(); amount.GreaterThan(available) {
		return nil, core.InsufficientLiquidityError{
			Requested: amount,
			Available: available,
		}
	}

	if pool.BorrowCap.IsPositive() {
		value, err := s.usdValue(ctx, pool, pool.TotalDebt().Add(amount))
		if err != nil {
			return nil, err
		}
		if value.GreaterThan(pool.BorrowCap) {
			return nil, core.CapReachedError{
				Code:    core.ErrBorrowCapReached,
				Current: value,
				Limit:   pool.BorrowCap,
			}
		}
	}

	if stable {
		if !pool.StableBorrowSupported {
			return nil, core.ErrStableBorrowNotSupported
		}

		if pool.StableBorrowPercentageCap.IsPositive() {
			share, err := hub.Ratio(pool.StableBorrowTotal.Add(amount), pool.TotalDebt().Add(amount))
			if err != nil {
				return nil, err
			}
			if share.GreaterThan(pool.StableBorrowPercentageCap) {
				return nil, core.CapReachedError{
					Code:    core.ErrStableBorrowPercentageCapExceeded,
					Current: share,
					Limit:   pool.StableBorrowPercentageCap,
				}
			}
		}

		if maxStableRate.IsPositive() && pool.StableBorrowInterestRate.GreaterThan(maxStableRate) {
			return nil, core.MaxStableRateExceededError{
				Current: pool.StableBorrowInterestRate,
				Max:     maxStableRate,
			}
		}
	}

	return &core.PoolBorrowSnapshot{
		VariableBorrowIndex: pool.VariableBorrowIndex,
		StableBorrowRate:    pool.StableBorrowInterestRate,
	}, nil
}

func (s *poolService) ApplyBorrow(ctx context.Context, pool *core.Pool, amount decimal.Decimal, stable bool, stableRate decimal.Decimal) error {
	if stable {
		pool.AverageStableInterestRate = hub.IncreasingAverageStableRate(
			amount, stableRate,
			pool.StableBorrowTotal, pool.AverageStableInterestRate,
		)
		pool.StableBorrowTotal = pool.StableBorrowTotal.Add(amount)
	} else {
		pool.VariableBorrowTotal = pool.VariableBorrowTotal.Add(amount)
	}

	return lending.RecomputeRates(pool)
}

func (s *poolService) ApplyRepay(ctx context.Context, pool *core.Pool, principalPaid, interestPaid, excessAmount decimal.Decimal, stable bool, loanStableRate decimal.Decimal) error {
	if stable {
		pool.AverageStableInterestRate = hub.DecreasingAverageStableRate(
			principalPaid, loanStableRate,
			pool.StableBorrowTotal, pool.AverageStableInterestRate,
		)
		pool.StableBorrowTotal = number.NonNegative(pool.StableBorrowTotal.Sub(principalPaid))
	} else {
		pool.VariableBorrowTotal = number.NonNegative(pool.VariableBorrowTotal.Sub(principalPaid))
	}

	// repaid interest becomes depositors' yield; over-repayment is retained
	pool.DepositTotal = pool.DepositTotal.Add(interestPaid)
	pool.RetainedFees = pool.RetainedFees.Add(excessAmount)

	return lending.RecomputeRates(pool)
}

func (s *poolService) ApplyLiquidation(ctx context.Context, pool *core.Pool) error {
	return lending.RecomputeRates(pool)
}

func (s *poolService) ApplySwitchBorrowType(ctx context.Context, pool *core.Pool, amount decimal.Decimal, toStable bool, oldStableRate, newStableRate decimal.Decimal) error {
	if toStable {
		if !pool.StableBorrowSupported {
			return core.ErrStableBorrowNotSupported
		}

		if pool.StableBorrowPercentageCap.IsPositive() && pool.TotalDebt().IsPositive() {
			share, err := hub.Ratio(pool.StableBorrowTotal.Add(amount), pool.TotalDebt())
			if err != nil {
				return err
			}
			if share.GreaterThan(pool.StableBorrowPercentageCap) {
				return core.CapReachedError{
					Code:    core.ErrStableBorrowPercentageCapExceeded,
					Current: share,
					Limit:   pool.StableBorrowPercentageCap,
				}
			}
		}

		pool.VariableBorrowTotal = number.NonNegative(pool.VariableBorrowTotal.Sub(amount))
		pool.AverageStableInterestRate = hub.IncreasingAverageStableRate(
			amount, newStableRate,
			pool.StableBorrowTotal, pool.AverageStableInterestRate,
		)
		pool.StableBorrowTotal = pool.StableBorrowTotal.Add(amount)
	} else {
		pool.AverageStableInterestRate = hub.DecreasingAverageStableRate(
			amount, oldStableRate,
			pool.StableBorrowTotal, pool.AverageStableInterestRate,
		)
		pool.StableBorrowTotal = number.NonNegative(pool.StableBorrowTotal.Sub(amount))
		pool.VariableBorrowTotal = pool.VariableBorrowTotal.Add(amount)
	}

	return lending.RecomputeRates(pool)
}

func (s *poolService) ValidateRebalanceUp(ctx context.Context, pool *core.Pool) error {
	if lending.UtilisationRatio(pool).GreaterThanOrEqual(pool.RebalanceUpUtilisationRatio) {
		return nil
	}

	threshold := hub.RebalanceUpThreshold(
		pool.RebalanceUpDepositInterestRate,
		pool.VariableRate0, pool.VariableRate1, pool.VariableRate2,
	)
	if pool.DepositInterestRate.GreaterThanOrEqual(threshold) {
		return nil
	}

	logger.FromContext(ctx).WithField("pool", pool.ID).
		Debugln("rebalance up rejected: neither utilisation nor deposit rate trigger reached")
	return core.ErrRebalanceUpThresholdNotReached
}

func (s *poolService) ValidateRebalanceDown(ctx context.Context, pool *core.Pool, loanStableRate decimal.Decimal) error {
	threshold := hub.RebalanceDownThreshold(pool.RebalanceDownDelta, pool.StableBorrowInterestRate)
	if loanStableRate.GreaterThan(threshold) {
		return nil
	}

	return core.ErrRebalanceDownThresholdNotReached
}

func (s *poolService) ApplyRebalance(ctx context.Context, pool *core.Pool, amount, oldRate, newRate decimal.Decimal) error {
	pool.AverageStableInterestRate = hub.DecreasingAverageStableRate(
		amount, oldRate,
		pool.StableBorrowTotal, pool.AverageStableInterestRate,
	)
	pool.AverageStableInterestRate = hub.IncreasingAverageStableRate(
		amount, newRate,
		pool.StableBorrowTotal.Sub(amount), pool.AverageStableInterestRate,
	)

	return lending.RecomputeRates(pool)
}

func (s *poolService) ClearFees(ctx context.Context, pool *core.Pool) decimal.Decimal {
	fees := pool.RetainedFees
	pool.RetainedFees = decimal.Zero
	return fees
}

func (s *poolService) usdValue(ctx context.Context, pool *core.Pool, amount decimal.Decimal) (decimal.Decimal, error) {
	price, err := s.priceService.GetPrice(ctx, pool.ID)
	if err != nil {
		return decimal.Zero, err
	}

	if !price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return amount.Mul(price).Truncate(hub.MaxPrecision), nil
}
