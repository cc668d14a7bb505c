package loan

import (
	"testing"
	"time"

	"lendhub/core"
	"lendhub/pkg/number"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanUpdateParamsCarryTombstone(t *testing.T) {
	loan := &core.Loan{
		ID:         "11111111-1111-1111-1111-111111111111",
		AccountID:  "acc",
		LoanTypeID: 1,
		Active:     false,
	}

	params := toLoanUpdateParams(loan)
	active, ok := params["active"]
	require.True(t, ok, "active column must always be written")
	assert.Equal(t, false, active)
}

func TestBorrowUpdateParamsCarrySwitchToVariable(t *testing.T) {
	borrow := &core.LoanBorrow{
		ID:                  7,
		LoanID:              "11111111-1111-1111-1111-111111111111",
		PoolID:              1,
		Amount:              number.Decimal("100"),
		Balance:             number.Decimal("101"),
		LastInterestIndex:   number.Decimal("1.01"),
		Stable:              false,
		StableInterestRate:  number.Decimal("0"),
		LastStableUpdatedAt: time.Now(),
	}

	params := toBorrowUpdateParams(borrow)
	stable, ok := params["stable"]
	require.True(t, ok, "stable column must always be written")
	assert.Equal(t, false, stable)
	assert.True(t, params["stable_interest_rate"].(decimal.Decimal).IsZero())
	assert.Equal(t, "1.01", params["last_interest_index"].(decimal.Decimal).String())
}

func TestCollateralUpdateParams(t *testing.T) {
	collateral := &core.LoanCollateral{
		ID:          3,
		LoanID:      "11111111-1111-1111-1111-111111111111",
		PoolID:      1,
		Balance:     number.Decimal("0"),
		RewardIndex: number.Decimal("2.5"),
	}

	params := toCollateralUpdateParams(collateral)
	balance, ok := params["balance"]
	require.True(t, ok, "balance column must always be written")
	assert.True(t, balance.(decimal.Decimal).IsZero())
	assert.Equal(t, "2.5", params["reward_index"].(decimal.Decimal).String())
}
