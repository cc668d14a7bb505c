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

func (w *Payee) handleDeposit(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		loanID uuid.UUID
		poolID uint64
		amount decimal.Decimal
	)
	if _, err := bridge.Scan(msg.Payload, &loanID, &poolID, &amount); err != nil {
		return core.ErrInvalidArgument
	}

	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, true, at)
	if err != nil {
		return err
	}

	pool, ok := lc.pools[poolID]
	if !ok {
		return core.ErrUnknownPool
	}

	rewardIndex := decimal.Zero
	if reward, ok := lc.rewards[poolID]; ok {
		rewardIndex = reward.CollateralRewardIndex
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	receipt, err := w.loanService.Deposit(ctx, lc.loan, pool, lc.loanType, amount, rewardIndex)
	if err != nil {
		return err
	}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyAmount, amount)
	extra.Put(core.TransactionKeyReceiptAmount, receipt)
	extra.Put(core.TransactionKeyDepositIndex, pool.DepositIndex)
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

func (w *Payee) handleWithdraw(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		loanID          uuid.UUID
		poolID          uint64
		amount          decimal.Decimal
		isReceiptAmount bool
	)
	if _, err := bridge.Scan(msg.Payload, &loanID, &poolID, &amount, &isReceiptAmount); err != nil {
		return core.ErrInvalidArgument
	}

	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, true, at)
	if err != nil {
		return err
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	res, err := w.loanService.Withdraw(ctx, lc.loan, lc.pools, lc.loanType, poolID, amount, isReceiptAmount, true)
	if err != nil {
		return err
	}

	pool := lc.pools[poolID]

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyAmount, res.UnderlyingWithdrawn)
	extra.Put(core.TransactionKeyReceiptAmount, res.ReceiptBurned)
	extra.Put(core.TransactionKeyDepositIndex, pool.DepositIndex)
	extra.Put(core.TransactionKeyDepositTotal, pool.DepositTotal)

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    lc.loan.ID,
		PoolID:    poolID,
		Amount:    res.UnderlyingWithdrawn,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		return w.persist(ctx, tx, lc, []uint64{poolID}, beforeCollaterals, beforeBorrows, transaction)
	})
}
