package loan

import (
	"context"
	"testing"
	"time"

	"lendhub/core"
	"lendhub/pkg/number"
	poolservice "lendhub/service/pool"

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

type fixture struct {
	oracle   *fakeOracle
	pools    map[uint64]*core.Pool
	loanType *core.LoanType
	pool     core.IPoolService
	loan     core.ILoanService
}

func newFixture(t0 time.Time) *fixture {
	newPool := func(pid uint64, symbol string) *core.Pool {
		return &core.Pool{
			ID:                  pid,
			Symbol:              symbol,
			LastUpdatedAt:       t0,
			DepositTotal:        number.Decimal("1000"),
			DepositIndex:        decimal.New(1, 0),
			OptimalUtilisation:  number.Decimal("0.8"),
			VariableRate0:       number.Decimal("0.01"),
			VariableRate1:       number.Decimal("0.04"),
			VariableRate2:       number.Decimal("0.75"),
			VariableBorrowIndex: decimal.New(1, 0),
			StableRate0:         number.Decimal("0.02"),
			StableRate1:         number.Decimal("0.05"),
			StableRate2:         number.Decimal("0.5"),
			StableRate3:         number.Decimal("0.3"),
			OptimalStableToTotalDebtRatio: number.Decimal("0.3"),
			RetentionRate:                 number.Decimal("0.1"),
			StableBorrowSupported:         true,
		}
	}

	oracle := &fakeOracle{prices: map[uint64]decimal.Decimal{
		1: number.Decimal("2"),
		2: number.Decimal("1"),
	}}

	poolSrv := poolservice.New(oracle)

	return &fixture{
		oracle: oracle,
		pools: map[uint64]*core.Pool{
			1: newPool(1, "ETH"),
			2: newPool(2, "USDX"),
		},
		loanType: &core.LoanType{
			ID:   1,
			Name: "standard",
			Pools: []*core.LoanTypePool{
				{LoanTypeID: 1, PoolID: 1, CollateralFactor: number.Decimal("0.5"), BorrowFactor: decimal.New(1, 0), LiquidationBonus: number.Decimal("0.1")},
				{LoanTypeID: 1, PoolID: 2, CollateralFactor: number.Decimal("0.5"), BorrowFactor: decimal.New(1, 0), LiquidationBonus: number.Decimal("0.1")},
			},
		},
		pool: poolSrv,
		loan: New(poolSrv, oracle),
	}
}

func (f *fixture) newLoan(t *testing.T, nonce string) *core.Loan {
	loan, err := f.loan.CreateLoan(context.Background(), "account-1", nonce, f.loanType)
	require.Nil(t, err)
	return loan
}

func TestCreateAndDeleteLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())

	loan := f.newLoan(t, "1")
	require.True(t, loan.Active)

	// same nonce derives the same id
	again := f.newLoan(t, "1")
	assert.Equal(t, loan.ID, again.ID)

	f.loanType.Deprecated = true
	_, err := f.loan.CreateLoan(ctx, "account-1", "2", f.loanType)
	assert.Equal(t, core.ErrLoanTypeDeprecated, core.Code(err))
	f.loanType.Deprecated = false

	_, err = f.loan.CreateLoan(ctx, "account-1", "2", nil)
	assert.Equal(t, core.ErrLoanTypeUnknown, core.Code(err))

	require.Nil(t, f.loan.DeleteLoan(ctx, loan))
	require.Equal(t, false, loan.Active)

	loan2 := f.newLoan(t, "3")
	_, err = f.loan.Deposit(ctx, loan2, f.pools[1], f.loanType, number.Decimal("10"), decimal.Zero)
	require.Nil(t, err)
	assert.Equal(t, core.ErrLoanNotEmpty, core.Code(f.loan.DeleteLoan(ctx, loan2)))
}

func TestDepositCollateralCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	// pool 1 price is 2: 60 units are worth 120
	f.loanType.Pools[0].CollateralCap = number.Decimal("100")
	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("60"), decimal.Zero)
	assert.Equal(t, core.ErrCollateralCapReached, core.Code(err))

	receipt, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("50"), decimal.Zero)
	require.Nil(t, err)
	assert.Equal(t, "50", receipt.String())
	assert.Equal(t, "50", loan.Collateral(1).Balance.String())
}

func TestWithdrawHealthCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)

	// effective collateral 100*2*0.5 = 100; borrow 80 of pool 2 at price 1
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("80"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	res, err := f.loan.Withdraw(ctx, loan, f.pools, f.loanType, 1, number.Decimal("10"), false, true)
	require.Nil(t, err)
	assert.Equal(t, "10", res.UnderlyingWithdrawn.String())
	assert.Equal(t, "90", loan.Collateral(1).Balance.String())

	_, err = f.loan.Withdraw(ctx, loan, f.pools, f.loanType, 2, number.Decimal("1"), false, true)
	assert.Equal(t, core.ErrUnknownCollateralPosition, core.Code(err))

	// dropping another 50 would leave effective collateral 40 < 80 debt
	_, err = f.loan.Withdraw(ctx, loan, f.pools, f.loanType, 1, number.Decimal("50"), false, true)
	assert.Equal(t, core.ErrUnderCollateralized, core.Code(err))
}

func TestBorrowOverCollateralized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)

	res, err := f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("100"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)
	require.Equal(t, false, res.Stable)
	assert.Equal(t, "100", loan.Borrow(2).Balance.String())

	// mixing borrow modes in one position is rejected
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("1"), number.Decimal("1"), decimal.Zero)
	assert.Equal(t, core.ErrOperationForbidden, core.Code(err))

	// another 200 would push debt past the effective collateral
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("200"), decimal.Zero, decimal.Zero)
	assert.Equal(t, core.ErrUnderCollateralized, core.Code(err))
}

func TestBorrowStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)

	res, err := f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("50"), number.Decimal("1"), decimal.Zero)
	require.Nil(t, err)
	require.Equal(t, true, res.Stable)

	b := loan.Borrow(2)
	require.True(t, b.Stable)
	assert.Equal(t, "50", f.pools[2].StableBorrowTotal.String())
	assert.Equal(t, b.StableInterestRate.String(), f.pools[2].AverageStableInterestRate.String())
}

func TestRepay(t *testing.T) {
	ctx := context.Background()
	t0 := time.Now()
	f := newFixture(t0)
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("100"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	// a year of interest on pool 2
	require.Nil(t, f.pool.AccrueInterest(ctx, f.pools[2], t0.Add(365*24*time.Hour)))

	depositBefore := f.pools[2].DepositTotal

	res, err := f.loan.Repay(ctx, loan, f.pools[2], number.Decimal("200"), number.Decimal("5"))
	assert.Equal(t, core.ErrExcessRepaymentExceeded, core.Code(err))

	res, err = f.loan.Repay(ctx, loan, f.pools[2], number.Decimal("104"), number.Decimal("5"))
	require.Nil(t, err)
	require.True(t, res.PositionClosed)
	require.True(t, res.InterestPaid.IsPositive())
	assert.Equal(t, "100", res.PrincipalPaid.String())
	require.Nil(t, loan.Borrow(2))

	// repaid interest flows back to depositors
	require.True(t, f.pools[2].DepositTotal.GreaterThan(depositBefore))
	require.True(t, f.pools[2].VariableBorrowTotal.IsZero())
}

func TestRepayWithCollateral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[2], f.loanType, number.Decimal("200"), decimal.Zero)
	require.Nil(t, err)
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("50"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	res, err := f.loan.RepayWithCollateral(ctx, loan, f.pools[2], number.Decimal("50"))
	require.Nil(t, err)
	require.True(t, res.PositionClosed)
	assert.Equal(t, "50", res.PrincipalPaid.String())
	assert.Equal(t, "150", loan.Collateral(2).Balance.String())
	require.True(t, f.pools[2].VariableBorrowTotal.IsZero())

	_, err = f.loan.RepayWithCollateral(ctx, loan, f.pools[1], number.Decimal("1"))
	assert.Equal(t, core.ErrUnknownBorrowPosition, core.Code(err))
}

func TestLiquidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	violator := f.newLoan(t, "1")
	liquidator, err := f.loan.CreateLoan(ctx, "account-2", "1", f.loanType)
	require.Nil(t, err)

	_, err = f.loan.Deposit(ctx, violator, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)
	_, err = f.loan.Borrow(ctx, violator, f.pools, f.loanType, 2, number.Decimal("90"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	_, err = f.loan.Liquidate(ctx, violator, violator, f.pools, f.loanType, 1, 2, number.Decimal("100"), decimal.Zero, decimal.Zero)
	assert.Equal(t, core.ErrSameLoan, core.Code(err))

	_, err = f.loan.Liquidate(ctx, violator, liquidator, f.pools, f.loanType, 1, 2, number.Decimal("100"), decimal.Zero, decimal.Zero)
	assert.Equal(t, core.ErrLoanIsHealthy, core.Code(err))

	// collateral price halves: effective collateral 50 < debt 90
	f.oracle.prices[1] = number.Decimal("1")

	_, err = f.loan.Liquidate(ctx, violator, liquidator, f.pools, f.loanType, 1, 2, number.Decimal("80"), decimal.Zero, decimal.Zero)
	assert.Equal(t, core.ErrRepayExceedsMax, core.Code(err))

	_, err = f.loan.Liquidate(ctx, violator, liquidator, f.pools, f.loanType, 1, 2, number.Decimal("100"), number.Decimal("1000"), decimal.Zero)
	assert.Equal(t, core.ErrSeizedLessThanMinimum, core.Code(err))

	res, err := f.loan.Liquidate(ctx, violator, liquidator, f.pools, f.loanType, 1, 2, number.Decimal("100"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	// repay 90 at price 1 with a 10% bonus seizes 99 of the 100 collateral
	assert.Equal(t, "90", res.RepayPrincipal.String())
	assert.Equal(t, "99", res.SeizedReceipt.String())
	assert.Equal(t, "1", violator.Collateral(1).Balance.String())
	require.Nil(t, violator.Borrow(2))
	assert.Equal(t, "99", liquidator.Collateral(1).Balance.String())
	require.True(t, f.pools[2].VariableBorrowTotal.IsZero())
}

func TestSwitchBorrowType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("50"), decimal.Zero, decimal.Zero)
	require.Nil(t, err)

	require.Nil(t, f.loan.SwitchBorrowType(ctx, loan, f.pools[2], decimal.Zero))
	b := loan.Borrow(2)
	require.True(t, b.Stable)
	assert.Equal(t, "50", f.pools[2].StableBorrowTotal.String())
	require.True(t, f.pools[2].VariableBorrowTotal.IsZero())

	require.Nil(t, f.loan.SwitchBorrowType(ctx, loan, f.pools[2], decimal.Zero))
	require.Equal(t, false, loan.Borrow(2).Stable)
	assert.Equal(t, "50", f.pools[2].VariableBorrowTotal.String())
}

func TestRebalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Now())
	loan := f.newLoan(t, "1")

	pool := f.pools[2]
	pool.RebalanceUpUtilisationRatio = number.Decimal("0.01")
	pool.RebalanceDownDelta = number.Decimal("0.2")

	_, err := f.loan.Deposit(ctx, loan, f.pools[1], f.loanType, number.Decimal("100"), decimal.Zero)
	require.Nil(t, err)
	_, err = f.loan.Borrow(ctx, loan, f.pools, f.loanType, 2, number.Decimal("50"), number.Decimal("1"), decimal.Zero)
	require.Nil(t, err)

	b := loan.Borrow(2)

	// utilisation trigger reached: rate re-snapshots to the current offer
	require.Nil(t, f.loan.RebalanceUp(ctx, loan, pool))
	assert.Equal(t, pool.StableBorrowInterestRate.String(), b.StableInterestRate.String())

	// the loan rate no longer exceeds 1.2x the offer rate
	err = f.loan.RebalanceDown(ctx, loan, pool)
	assert.Equal(t, core.ErrRebalanceDownThresholdNotReached, core.Code(err))

	b.StableInterestRate = pool.StableBorrowInterestRate.Mul(number.Decimal("1.5"))
	require.Nil(t, f.loan.RebalanceDown(ctx, loan, pool))
	assert.Equal(t, pool.StableBorrowInterestRate.String(), b.StableInterestRate.String())
}
