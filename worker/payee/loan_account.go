package payee

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/pkg/bridge"

	"github.com/fox-one/pkg/store/db"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
)

func (w *Payee) handleCreateLoan(ctx context.Context, msg *core.Message, at time.Time) error {
	var (
		nonce      string
		loanTypeID uint64
	)
	if _, err := bridge.Scan(msg.Payload, &nonce, &loanTypeID); err != nil {
		return core.ErrInvalidArgument
	}

	loanType, err := w.loanTypeStore.FindWithPools(ctx, loanTypeID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return core.ErrLoanTypeUnknown
		}
		return err
	}

	loan, err := w.loanService.CreateLoan(ctx, msg.AccountID, nonce, loanType)
	if err != nil {
		return err
	}

	// the id is deterministic, so a taken row means this nonce was used
	if _, err := w.loanStore.Find(ctx, loan.ID); err == nil {
		return core.ErrUserLoanAlreadyCreated
	} else if !gorm.IsRecordNotFoundError(err) {
		return err
	}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyLoan, loan.ID)

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    loan.ID,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		if err := w.loanStore.Create(ctx, tx, loan); err != nil {
			return err
		}
		return w.transactionStore.Create(ctx, tx, transaction)
	})
}

func (w *Payee) handleDeleteLoan(ctx context.Context, msg *core.Message, at time.Time) error {
	var loanID uuid.UUID
	if _, err := bridge.Scan(msg.Payload, &loanID); err != nil {
		return core.ErrInvalidArgument
	}

	lc, err := w.loadLoanContext(ctx, loanID.String(), msg.AccountID, true, at)
	if err != nil {
		return err
	}

	if err := w.loanService.DeleteLoan(ctx, lc.loan); err != nil {
		return err
	}

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		LoanID:    lc.loan.ID,
	}
	transaction.SetExtraData(core.NewTransactionExtra())

	return w.db.Tx(func(tx *db.DB) error {
		return w.persist(ctx, tx, lc, nil, nil, nil, transaction)
	})
}
