package reward

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

func TestUpdatePoolRewardIndexes(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Now()

	pool := &core.Pool{
		ID:                  1,
		DepositTotal:        number.Decimal("1000"),
		DepositIndex:        decimal.New(1, 0),
		VariableBorrowTotal: number.Decimal("500"),
	}
	ltp := &core.LoanTypePool{
		PoolID:                1,
		CollateralRewardSpeed: number.Decimal("1"),
		BorrowRewardSpeed:     number.Decimal("2"),
	}
	reward := &core.PoolReward{LoanTypeID: 1, PoolID: 1, LastUpdatedAt: t0}

	// 100 seconds: 100/1000 and 200/500
	s.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, t0.Add(100*time.Second))
	assert.Equal(t, "0.1", reward.CollateralRewardIndex.String())
	assert.Equal(t, "0.4", reward.BorrowRewardIndex.String())

	// same timestamp again: nothing accrues
	s.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, t0.Add(100*time.Second))
	assert.Equal(t, "0.1", reward.CollateralRewardIndex.String())

	// empty pool: index stands still instead of dividing by zero
	pool.DepositTotal = decimal.Zero
	pool.VariableBorrowTotal = decimal.Zero
	s.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, t0.Add(200*time.Second))
	assert.Equal(t, "0.1", reward.CollateralRewardIndex.String())
	assert.Equal(t, "0.4", reward.BorrowRewardIndex.String())
}

func TestSettleLoanIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	loan := &core.Loan{
		ID: "loan-1",
		Collaterals: []*core.LoanCollateral{
			{PoolID: 1, Balance: number.Decimal("100")},
		},
		Borrows: []*core.LoanBorrow{
			{PoolID: 1, Balance: number.Decimal("50")},
		},
	}
	rewards := map[uint64]*core.PoolReward{
		1: {PoolID: 1, CollateralRewardIndex: number.Decimal("0.1"), BorrowRewardIndex: number.Decimal("0.4")},
	}
	claim := &core.LoanReward{LoanID: "loan-1"}

	s.SettleLoan(ctx, loan, rewards, claim)
	// 100*0.1 + 50*0.4
	assert.Equal(t, "30", claim.Amount.String())
	assert.Equal(t, "0.1", loan.Collaterals[0].RewardIndex.String())

	// a second settlement with unchanged indexes accrues nothing
	s.SettleLoan(ctx, loan, rewards, claim)
	assert.Equal(t, "30", claim.Amount.String())

	// index moved on: only the delta accrues
	rewards[1].CollateralRewardIndex = number.Decimal("0.2")
	s.SettleLoan(ctx, loan, rewards, claim)
	require.Equal(t, "40", claim.Amount.String())
}
