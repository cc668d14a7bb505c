package reward

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/internal/hub"
	"lendhub/pkg/number"

	"github.com/shopspring/decimal"
)

type rewardService struct{}

// New new reward service
func New() core.IRewardService {
	return &rewardService{}
}

func (s *rewardService) UpdatePoolRewardIndexes(ctx context.Context, reward *core.PoolReward, pool *core.Pool, loanTypePool *core.LoanTypePool, at time.Time) {
	elapsed := elapsedSeconds(reward, at)
	if elapsed > 0 {
		// emission spread over current supply; with nothing supplied the
		// index stands still and no rewards leak
		if receiptTotal := hub.ToReceiptAmount(pool.DepositTotal, pool.DepositIndex, false); receiptTotal.IsPositive() {
			emitted := loanTypePool.CollateralRewardSpeed.Mul(decimal.NewFromInt(elapsed))
			reward.CollateralRewardIndex = reward.CollateralRewardIndex.
				Add(emitted.Div(receiptTotal).Truncate(hub.MaxPrecision))
		}

		if debtTotal := pool.TotalDebt(); debtTotal.IsPositive() {
			emitted := loanTypePool.BorrowRewardSpeed.Mul(decimal.NewFromInt(elapsed))
			reward.BorrowRewardIndex = reward.BorrowRewardIndex.
				Add(emitted.Div(debtTotal).Truncate(hub.MaxPrecision))
		}
	}

	reward.LastUpdatedAt = at
}

func (s *rewardService) SettleLoan(ctx context.Context, loan *core.Loan, rewards map[uint64]*core.PoolReward, claim *core.LoanReward) {
	for _, c := range loan.Collaterals {
		r, ok := rewards[c.PoolID]
		if !ok {
			continue
		}

		if delta := number.NonNegative(r.CollateralRewardIndex.Sub(c.RewardIndex)); delta.IsPositive() {
			claim.Amount = claim.Amount.Add(delta.Mul(c.Balance).Truncate(hub.MaxPrecision))
		}
		c.RewardIndex = r.CollateralRewardIndex
	}

	for _, b := range loan.Borrows {
		r, ok := rewards[b.PoolID]
		if !ok {
			continue
		}

		if delta := number.NonNegative(r.BorrowRewardIndex.Sub(b.RewardIndex)); delta.IsPositive() {
			claim.Amount = claim.Amount.Add(delta.Mul(b.Balance).Truncate(hub.MaxPrecision))
		}
		b.RewardIndex = r.BorrowRewardIndex
	}
}

func elapsedSeconds(reward *core.PoolReward, at time.Time) int64 {
	if reward.LastUpdatedAt.IsZero() {
		return 0
	}
	return int64(at.Sub(reward.LastUpdatedAt) / time.Second)
}
