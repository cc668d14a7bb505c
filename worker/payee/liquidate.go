package payee

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/pkg/bridge"

	"github.com/fox-one/pkg/store/db"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

func (w *Payee) handleLiquidate(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		violatorID      uuid.UUID
		liquidatorID    uuid.UUID
		colPoolID       uint64
		borPoolID       uint64
		maxRepayAmount  decimal.Decimal
		minSeizedAmount decimal.Decimal
	)
	if _, err := bridge.Scan(msg.Payload, &violatorID, &liquidatorID, &colPoolID, &borPoolID, &maxRepayAmount, &minSeizedAmount); err != nil {
		return core.ErrInvalidArgument
	}

	// the violator can be anyone's loan; the liquidator loan receiving the
	// seized collateral must belong to the caller
	lc, err := w.loadLoanContext(ctx, violatorID.String(), msg.AccountID, false, at)
	if err != nil {
		return err
	}

	liquidator, err := w.loanStore.FindWithPositions(ctx, liquidatorID.String())
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return core.ErrUnknownUserLoan
		}
		return err
	}
	if !liquidator.Active {
		return core.ErrUnknownUserLoan
	}
	if liquidator.AccountID != msg.AccountID {
		return core.ErrNotAccountOwner
	}

	// settle the liquidator's pending rewards before its collateral balance
	// moves; a shared loan type reuses the already-advanced indexes
	liqRewards := lc.rewards
	var ownRewards []*core.PoolReward
	if liquidator.LoanTypeID != lc.loan.LoanTypeID {
		liqRewards = make(map[uint64]*core.PoolReward)
		liqType, err := w.loanTypeStore.FindWithPools(ctx, liquidator.LoanTypeID)
		if err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return core.ErrLoanTypeUnknown
			}
			return err
		}

		for _, ltp := range liqType.Pools {
			reward, err := w.rewardStore.FindPoolReward(ctx, liqType.ID, ltp.PoolID)
			if err != nil {
				if !gorm.IsRecordNotFoundError(err) {
					return err
				}
				reward = &core.PoolReward{
					LoanTypeID:    liqType.ID,
					PoolID:        ltp.PoolID,
					LastUpdatedAt: at,
				}
			}
			if pool, ok := lc.pools[ltp.PoolID]; ok {
				w.rewardService.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, at)
			}
			liqRewards[ltp.PoolID] = reward
			ownRewards = append(ownRewards, reward)
		}
	}

	liqClaim, err := w.rewardStore.FindLoanReward(ctx, liquidator.ID)
	if err != nil {
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		liqClaim = &core.LoanReward{LoanID: liquidator.ID}
	}
	w.rewardService.SettleLoan(ctx, liquidator, liqRewards, liqClaim)

	colRewardIndex := decimal.Zero
	if reward, ok := liqRewards[colPoolID]; ok {
		colRewardIndex = reward.CollateralRewardIndex
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	res, err := w.loanService.Liquidate(ctx, lc.loan, liquidator, lc.pools, lc.loanType, colPoolID, borPoolID, maxRepayAmount, minSeizedAmount, colRewardIndex)
	if err != nil {
		return err
	}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyAmount, res.RepayPrincipal)
	extra.Put(core.TransactionKeyInterest, res.RepayInterest)
	extra.Put(core.TransactionKeySeized, res.SeizedReceipt)
	extra.Put(core.TransactionKeyViolator, lc.loan.ID)

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    liquidator.ID,
		PoolID:    borPoolID,
		Amount:    res.RepayPrincipal.Add(res.RepayInterest),
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		if err := w.persist(ctx, tx, lc, []uint64{colPoolID, borPoolID}, beforeCollaterals, beforeBorrows, transaction); err != nil {
			return err
		}

		if err := w.loanStore.Update(ctx, tx, liquidator); err != nil {
			return err
		}
		for _, c := range liquidator.Collaterals {
			if err := w.loanStore.SaveCollateral(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, reward := range ownRewards {
			if err := w.rewardStore.SavePoolReward(ctx, tx, reward); err != nil {
				return err
			}
		}
		return w.rewardStore.SaveLoanReward(ctx, tx, liqClaim)
	})
}
