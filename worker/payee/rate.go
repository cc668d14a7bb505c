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

// handleRateAction covers switch and both rebalances: same shape, different
// trigger. Rebalances are permissionless, so no owner check.
func (w *Payee) handleRateAction(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		loanID        uuid.UUID
		poolID        uint64
		maxStableRate decimal.Decimal
	)

	remain, err := bridge.Scan(msg.Payload, &loanID, &poolID)
	if err != nil {
		return core.ErrInvalidArgument
	}
	if msg.Action == core.ActionTypeSwitchBorrowType {
		if _, err := bridge.Scan(remain, &maxStableRate); err != nil {
			return core.ErrInvalidArgument
		}
	}

	checkOwner := msg.Action == core.ActionTypeSwitchBorrowType
	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, checkOwner, at)
	if err != nil {
		return err
	}

	pool, ok := lc.pools[poolID]
	if !ok {
		return core.ErrUnknownPool
	}

	beforeCollaterals, beforeBorrows := positionPoolIDs(lc)

	switch msg.Action {
	case core.ActionTypeSwitchBorrowType:
		err = w.loanService.SwitchBorrowType(ctx, lc.loan, pool, maxStableRate)
	case core.ActionTypeRebalanceUp:
		err = w.loanService.RebalanceUp(ctx, lc.loan, pool)
	case core.ActionTypeRebalanceDown:
		err = w.loanService.RebalanceDown(ctx, lc.loan, pool)
	}
	if err != nil {
		return err
	}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyBorrowTotal, pool.TotalDebt())
	if b := lc.loan.Borrow(poolID); b != nil {
		extra.Put("stable", b.Stable)
		extra.Put("stable_rate", b.StableInterestRate)
	}

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    lc.loan.ID,
		PoolID:    poolID,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		return w.persist(ctx, tx, lc, []uint64{poolID}, beforeCollaterals, beforeBorrows, transaction)
	})
}
