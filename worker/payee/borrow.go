package payee

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/pkg/bridge"

	"github.com/fox-one/pkg/store/db"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

func (w *Payee) handleBorrow(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		loanID        uuid.UUID
		poolID        uint64
		amount        decimal.Decimal
		maxStableRate decimal.Decimal
	)
	if _, err := bridge.Scan(msg.Payload, &loanID, &poolID, &amount, &maxStableRate); err != nil {
		return core.ErrInvalidArgument
	}

	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, true, at)
	if err != nil {
		return err
	}

	rewardIndex := decimal.Zero
	if reward, ok := lc.rewards[poolID]; ok {
		rewardIndex = reward.BorrowRewardIndex
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	res, err := w.loanService.Borrow(ctx, lc.loan, lc.pools, lc.loanType, poolID, amount, maxStableRate, rewardIndex)
	if err != nil {
		return err
	}

	pool := lc.pools[poolID]

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyAmount, amount)
	extra.Put(core.TransactionKeyBorrowIndex, pool.VariableBorrowIndex)
	extra.Put(core.TransactionKeyBorrowTotal, pool.TotalDebt())
	if res.Stable {
		extra.Put("stable_rate", res.StableRate)
	}

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    lc.loan.ID,
		PoolID:    poolID,
		Amount:    amount,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		return w.persist(ctx, tx, lc, []uint64{poolID}, beforeCollaterals, beforeBorrows, transaction)
	})
}

func (w *Payee) handleRepay(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		loanID           uuid.UUID
		poolID           uint64
		amount           decimal.Decimal
		maxOverRepayment decimal.Decimal
	)

	remain, err := bridge.Scan(msg.Payload, &loanID, &poolID, &amount)
	if err != nil {
		return core.ErrInvalidArgument
	}
	if msg.Action == core.ActionTypeRepay {
		if _, err := bridge.Scan(remain, &maxOverRepayment); err != nil {
			return core.ErrInvalidArgument
		}
	}

	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, true, at)
	if err != nil {
		return err
	}

	pool, ok := lc.pools[poolID]
	if !ok {
		return core.ErrUnknownPool
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	var res *core.RepayResult
	if msg.Action == core.ActionTypeRepayWithCollateral {
		res, err = w.loanService.RepayWithCollateral(ctx, lc.loan, pool, amount)
	} else {
		res, err = w.loanService.Repay(ctx, lc.loan, pool, amount, maxOverRepayment)
	}
	if err != nil {
		return err
	}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyAmount, res.PrincipalPaid)
	extra.Put(core.TransactionKeyInterest, res.InterestPaid)
	extra.Put(core.TransactionKeyBorrowTotal, pool.TotalDebt())
	extra.Put(core.TransactionKeyDepositTotal, pool.DepositTotal)

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    lc.loan.ID,
		PoolID:    poolID,
		Amount:    amount,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		return w.persist(ctx, tx, lc, []uint64{poolID}, beforeCollaterals, beforeBorrows, transaction)
	})
}
