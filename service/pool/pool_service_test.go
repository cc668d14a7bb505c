package pool

import (
	"context"
	"testing"
	"time"

	"lendhub/core"
	"lendhub/pkg/number"

	"github.com/bmizerany/assert"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	prices map[uint64]decimal.Decimal
}

func (f *fakeOracle) GetPrice(ctx context.Context, poolID uint64) (decimal.Decimal, error) {
	price, ok := f.prices[poolID]
	if !ok {
		return decimal.Zero, core.ErrInvalidPrice
	}
	return price, nil
}

func (f *fakeOracle) PullPriceTicker(ctx context.Context, symbol string, t time.Time) (*core.PriceTicker, error) {
	return nil, nil
}

func testPool() *core.Pool {
	return &core.Pool{
		ID:                  1,
		Symbol:              "USDX",
		LastUpdatedAt:       time.Now(),
		DepositTotal:        number.Decimal("1000"),
		DepositIndex:        decimal.New(1, 0),
		OptimalUtilisation:  number.Decimal("0.8"),
		VariableBorrowTotal: number.Decimal("400"),
		VariableRate0:       number.Decimal("0.01"),
		VariableRate1:       number.Decimal("0.04"),
		VariableRate2:       number.Decimal("0.75"),
		VariableBorrowIndex: decimal.New(1, 0),
		StableBorrowTotal:   number.Decimal("100"),
		StableRate0:         number.Decimal("0.02"),
		StableRate1:         number.Decimal("0.05"),
		StableRate2:         number.Decimal("0.5"),
		StableRate3:         number.Decimal("0.3"),
		OptimalStableToTotalDebtRatio: number.Decimal("0.3"),
		AverageStableInterestRate:     number.Decimal("0.12"),
		RetentionRate:                 number.Decimal("0.1"),
		StableBorrowSupported:         true,
		StableBorrowPercentageCap:     number.Decimal("0.5"),
	}
}

func testService() core.IPoolService {
	return New(&fakeOracle{prices: map[uint64]decimal.Decimal{1: number.Decimal("1")}})
}

func TestApplyDeposit(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	receipt, err := s.ApplyDeposit(ctx, pool, number.Decimal("100"))
	require.Nil(t, err)
	assert.Equal(t, "100", receipt.String())
	assert.Equal(t, "1100", pool.DepositTotal.String())

	_, err = s.ApplyDeposit(ctx, pool, decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, core.Code(err))

	pool.Deprecated = true
	_, err = s.ApplyDeposit(ctx, pool, number.Decimal("1"))
	assert.Equal(t, core.ErrDeprecatedPool, core.Code(err))
}

func TestApplyDepositCap(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()
	pool.DepositCap = number.Decimal("1050")

	_, err := s.ApplyDeposit(ctx, pool, number.Decimal("100"))
	assert.Equal(t, core.ErrDepositCapReached, core.Code(err))

	_, err = s.ApplyDeposit(ctx, pool, number.Decimal("50"))
	require.Nil(t, err)
}

// The cap is USD-denominated: with a price of 1000 a deposit well under the
// cap in raw units must still be rejected once its value crosses the cap.
func TestApplyDepositCapWithPrice(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeOracle{prices: map[uint64]decimal.Decimal{2: number.Decimal("1000")}})

	pool := testPool()
	pool.ID = 2
	pool.Symbol = "BTCX"
	pool.DepositCap = number.Decimal("1050000")

	_, err := s.ApplyDeposit(ctx, pool, number.Decimal("100"))
	assert.Equal(t, core.ErrDepositCapReached, core.Code(err))

	_, err = s.ApplyDeposit(ctx, pool, number.Decimal("50"))
	require.Nil(t, err)
	assert.Equal(t, "1050", pool.DepositTotal.String())
}

func TestApplyWithdraw(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	// only 500 of the 1000 deposits are free
	err := s.ApplyWithdraw(ctx, pool, number.Decimal("600"))
	assert.Equal(t, core.ErrInsufficientLiquidity, core.Code(err))

	require.Nil(t, s.ApplyWithdraw(ctx, pool, number.Decimal("500")))
	assert.Equal(t, "500", pool.DepositTotal.String())
}

func TestPrepareBorrow(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	snapshot, err := s.PrepareBorrow(ctx, pool, number.Decimal("100"), false, decimal.Zero)
	require.Nil(t, err)
	assert.Equal(t, pool.VariableBorrowIndex.String(), snapshot.VariableBorrowIndex.String())

	_, err = s.PrepareBorrow(ctx, pool, number.Decimal("600"), false, decimal.Zero)
	assert.Equal(t, core.ErrInsufficientLiquidity, core.Code(err))

	pool.BorrowCap = number.Decimal("550")
	_, err = s.PrepareBorrow(ctx, pool, number.Decimal("100"), false, decimal.Zero)
	assert.Equal(t, core.ErrBorrowCapReached, core.Code(err))
	pool.BorrowCap = decimal.Zero

	// stable share would become 300/700 > 0.5 is false; push the cap down
	pool.StableBorrowPercentageCap = number.Decimal("0.2")
	_, err = s.PrepareBorrow(ctx, pool, number.Decimal("100"), true, decimal.Zero)
	assert.Equal(t, core.ErrStableBorrowPercentageCapExceeded, core.Code(err))
	pool.StableBorrowPercentageCap = number.Decimal("0.5")

	pool.StableBorrowSupported = false
	_, err = s.PrepareBorrow(ctx, pool, number.Decimal("100"), true, decimal.Zero)
	assert.Equal(t, core.ErrStableBorrowNotSupported, core.Code(err))
	pool.StableBorrowSupported = true

	pool.StableBorrowInterestRate = number.Decimal("0.2")
	_, err = s.PrepareBorrow(ctx, pool, number.Decimal("100"), true, number.Decimal("0.1"))
	assert.Equal(t, core.ErrMaxStableRateExceeded, core.Code(err))
}

func TestApplyBorrowAndRepayStable(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	require.Nil(t, s.ApplyBorrow(ctx, pool, number.Decimal("100"), true, number.Decimal("0.2")))
	assert.Equal(t, "200", pool.StableBorrowTotal.String())
	// (100*0.12 + 100*0.2) / 200
	assert.Equal(t, "0.16", pool.AverageStableInterestRate.String())

	require.Nil(t, s.ApplyRepay(ctx, pool, number.Decimal("100"), number.Decimal("2"), decimal.Zero, true, number.Decimal("0.2")))
	assert.Equal(t, "100", pool.StableBorrowTotal.String())
	assert.Equal(t, "0.12", pool.AverageStableInterestRate.String())
	// repaid interest feeds the deposit ledger
	assert.Equal(t, "1002", pool.DepositTotal.String())
}

func TestApplyRepayExcessRetained(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	require.Nil(t, s.ApplyRepay(ctx, pool, number.Decimal("50"), number.Decimal("1"), number.Decimal("0.5"), false, decimal.Zero))
	assert.Equal(t, "350", pool.VariableBorrowTotal.String())
	assert.Equal(t, "0.5", pool.RetainedFees.String())

	fees := s.ClearFees(ctx, pool)
	assert.Equal(t, "0.5", fees.String())
	require.True(t, pool.RetainedFees.IsZero())
}

func TestApplySwitchBorrowType(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()

	require.Nil(t, s.ApplySwitchBorrowType(ctx, pool, number.Decimal("100"), true, decimal.Zero, number.Decimal("0.12")))
	assert.Equal(t, "300", pool.VariableBorrowTotal.String())
	assert.Equal(t, "200", pool.StableBorrowTotal.String())

	require.Nil(t, s.ApplySwitchBorrowType(ctx, pool, number.Decimal("100"), false, number.Decimal("0.12"), decimal.Zero))
	assert.Equal(t, "400", pool.VariableBorrowTotal.String())
	assert.Equal(t, "100", pool.StableBorrowTotal.String())
}

func TestValidateRebalanceUp(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()
	pool.RebalanceUpUtilisationRatio = number.Decimal("0.95")
	pool.RebalanceUpDepositInterestRate = number.Decimal("0.9")

	// ut = 0.5 < 0.95 and deposit rate far below 0.9*(0.01+0.04+0.75)
	err := s.ValidateRebalanceUp(ctx, pool)
	assert.Equal(t, core.ErrRebalanceUpThresholdNotReached, core.Code(err))

	pool.RebalanceUpUtilisationRatio = number.Decimal("0.5")
	require.Nil(t, s.ValidateRebalanceUp(ctx, pool))
}

func TestValidateRebalanceDown(t *testing.T) {
	ctx := context.Background()
	s := testService()
	pool := testPool()
	pool.StableBorrowInterestRate = number.Decimal("0.1")
	pool.RebalanceDownDelta = number.Decimal("0.2")

	// threshold = 1.2 * 0.1 = 0.12
	err := s.ValidateRebalanceDown(ctx, pool, number.Decimal("0.11"))
	assert.Equal(t, core.ErrRebalanceDownThresholdNotReached, core.Code(err))

	require.Nil(t, s.ValidateRebalanceDown(ctx, pool, number.Decimal("0.13")))
}
