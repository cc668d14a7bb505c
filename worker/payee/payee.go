package payee

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

const (
	checkpointKey = "messages_checkpoint"
	limit         = 100
)

// Payee consumes inbound spoke messages in ID order and applies each one
// atomically: one message, one transaction, one audit row. Typed rejections
// abort the action but still commit an audit row and advance the checkpoint;
// infrastructure errors leave the checkpoint so the message is retried.
type Payee struct {
	worker.TickWorker
	db               *db.DB
	propertyStore    property.Store
	messageStore     core.IMessageStore
	poolStore        core.IPoolStore
	loanStore        core.ILoanStore
	loanTypeStore    core.ILoanTypeStore
	rewardStore      core.IRewardStore
	transactionStore core.ITransactionStore
	poolService      core.IPoolService
	loanService      core.ILoanService
	rewardService    core.IRewardService
}

// NewPayee new payee worker
func NewPayee(
	db *db.DB,
	propertyStore property.Store,
	messageStore core.IMessageStore,
	poolStore core.IPoolStore,
	loanStore core.ILoanStore,
	loanTypeStore core.ILoanTypeStore,
	rewardStore core.IRewardStore,
	transactionStore core.ITransactionStore,
	poolService core.IPoolService,
	loanService core.ILoanService,
	rewardService core.IRewardService) *Payee {

	return &Payee{
		db:               db,
		propertyStore:    propertyStore,
		messageStore:     messageStore,
		poolStore:        poolStore,
		loanStore:        loanStore,
		loanTypeStore:    loanTypeStore,
		rewardStore:      rewardStore,
		transactionStore: transactionStore,
		poolService:      poolService,
		loanService:      loanService,
		rewardService:    rewardService,
	}
}

// Run run worker
func (w *Payee) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Payee) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "payee")

	v, err := w.propertyStore.Get(ctx, checkpointKey)
	if err != nil {
		log.WithError(err).Errorln("property.Get error")
		return err
	}

	messages, err := w.messageStore.List(ctx, uint64(v.Int64()), limit)
	if err != nil {
		log.WithError(err).Errorln("messageStore.List")
		return err
	}

	if len(messages) == 0 {
		return nil
	}

	for _, msg := range messages {
		if err := w.handleMessage(ctx, msg); err != nil {
			return err
		}

		if err := w.propertyStore.Save(ctx, checkpointKey, msg.ID); err != nil {
			log.WithError(err).Errorln("property.Save:", msg.ID)
			return err
		}
	}

	return nil
}

func (w *Payee) handleMessage(ctx context.Context, msg *core.Message) error {
	log := logger.FromContext(ctx).
		WithField("trace", msg.TraceID).
		WithField("action", msg.Action.String())
	ctx = logger.WithContext(ctx, log)

	// a replayed message never applies twice
	if _, err := w.transactionStore.FindByTraceID(ctx, msg.TraceID); err == nil {
		log.Debugln("message already handled")
		return nil
	} else if !gorm.IsRecordNotFoundError(err) {
		return err
	}

	now := time.Now()

	var handler func(ctx context.Context, msg *core.Message, at time.Time) error
	switch msg.Action {
	case core.ActionTypeCreateLoan:
		handler = w.handleCreateLoan
	case core.ActionTypeDeleteLoan:
		handler = w.handleDeleteLoan
	case core.ActionTypeDeposit:
		handler = w.handleDeposit
	case core.ActionTypeWithdraw:
		handler = w.handleWithdraw
	case core.ActionTypeBorrow:
		handler = w.handleBorrow
	case core.ActionTypeRepay, core.ActionTypeRepayWithCollateral:
		handler = w.handleRepay
	case core.ActionTypeLiquidate:
		handler = w.handleLiquidate
	case core.ActionTypeSwitchBorrowType, core.ActionTypeRebalanceUp, core.ActionTypeRebalanceDown:
		handler = w.handleRateAction
	default:
		return w.abort(ctx, msg, core.ErrInvalidArgument)
	}

	if err := handler(ctx, msg, now); err != nil {
		if code := core.Code(err); code != core.ErrUnknown {
			log.WithError(err).Infoln("action aborted")
			return w.abort(ctx, msg, err)
		}
		return err
	}

	return nil
}

// abort commits an audit row for a rejected action; pool and loan state stay
// untouched because the action's own transaction rolled back.
func (w *Payee) abort(ctx context.Context, msg *core.Message, cause error) error {
	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyErrorCode, core.Code(cause))

	transaction := &core.Transaction{
		Action:    msg.Action,
		TraceID:   msg.TraceID,
		AccountID: msg.AccountID,
		Status:    core.TransactionStatusAbort,
	}
	transaction.SetExtraData(extra)

	return w.db.Tx(func(tx *db.DB) error {
		return w.transactionStore.Create(ctx, tx, transaction)
	})
}

// loanContext everything a loan action needs, loaded and accrued once.
type loanContext struct {
	loan     *core.Loan
	loanType *core.LoanType
	pools    map[uint64]*core.Pool
	rewards  map[uint64]*core.PoolReward
	claim    *core.LoanReward
}

func (w *Payee) loadLoanContext(ctx context.Context, loanID, accountID string, checkOwner bool, at time.Time) (*loanContext, error) {
	loan, err := w.loanStore.FindWithPositions(ctx, loanID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrUnknownUserLoan
		}
		return nil, err
	}

	if !loan.Active {
		return nil, core.ErrUnknownUserLoan
	}

	if checkOwner && loan.AccountID != accountID {
		return nil, core.ErrNotAccountOwner
	}

	loanType, err := w.loanTypeStore.FindWithPools(ctx, loan.LoanTypeID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrLoanTypeUnknown
		}
		return nil, err
	}

	pools, err := w.poolStore.AllAsMap(ctx)
	if err != nil {
		return nil, err
	}

	for _, pool := range pools {
		if err := w.poolService.AccrueInterest(ctx, pool, at); err != nil {
			return nil, err
		}
	}

	rewards := make(map[uint64]*core.PoolReward)
	for _, ltp := range loanType.Pools {
		reward, err := w.rewardStore.FindPoolReward(ctx, loanType.ID, ltp.PoolID)
		if err != nil {
			if !gorm.IsRecordNotFoundError(err) {
				return nil, err
			}
			reward = &core.PoolReward{
				LoanTypeID:    loanType.ID,
				PoolID:        ltp.PoolID,
				LastUpdatedAt: at,
			}
		}

		if pool, ok := pools[ltp.PoolID]; ok {
			w.rewardService.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, at)
		}
		rewards[ltp.PoolID] = reward
	}

	claim, err := w.rewardStore.FindLoanReward(ctx, loan.ID)
	if err != nil {
		if !gorm.IsRecordNotFoundError(err) {
			return nil, err
		}
		claim = &core.LoanReward{LoanID: loan.ID}
	}

	// rewards settle before any balance moves so the emission already earned
	// is locked in at the old balances
	w.rewardService.SettleLoan(ctx, loan, rewards, claim)

	return &loanContext{
		loan:     loan,
		loanType: loanType,
		pools:    pools,
		rewards:  rewards,
		claim:    claim,
	}, nil
}

// persist writes back every aggregate the action touched, then the audit row.
func (w *Payee) persist(ctx context.Context, tx *db.DB, lc *loanContext, touchedPools []uint64, beforeCollaterals, beforeBorrows []uint64, transaction *core.Transaction) error {
	for _, pid := range touchedPools {
		pool, ok := lc.pools[pid]
		if !ok {
			continue
		}
		if err := w.poolStore.Update(ctx, tx, pool); err != nil {
			return err
		}
	}

	if err := w.loanStore.Update(ctx, tx, lc.loan); err != nil {
		return err
	}

	for _, c := range lc.loan.Collaterals {
		if err := w.loanStore.SaveCollateral(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, pid := range beforeCollaterals {
		if lc.loan.Collateral(pid) == nil {
			if err := w.loanStore.DeleteCollateral(ctx, tx, lc.loan.ID, pid); err != nil {
				return err
			}
		}
	}

	for _, b := range lc.loan.Borrows {
		if err := w.loanStore.SaveBorrow(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, pid := range beforeBorrows {
		if lc.loan.Borrow(pid) == nil {
			if err := w.loanStore.DeleteBorrow(ctx, tx, lc.loan.ID, pid); err != nil {
				return err
			}
		}
	}

	for _, reward := range lc.rewards {
		if err := w.rewardStore.SavePoolReward(ctx, tx, reward); err != nil {
			return err
		}
	}
	if err := w.rewardStore.SaveLoanReward(ctx, tx, lc.claim); err != nil {
		return err
	}

	return w.transactionStore.Create(ctx, tx, transaction)
}

func positionPoolIDs(lc *loanContext) (collaterals, borrows []uint64) {
	for _, c := range lc.loan.Collaterals {
		collaterals = append(collaterals, c.PoolID)
	}
	for _, b := range lc.loan.Borrows {
		borrows = append(borrows, b.PoolID)
	}
	return
}
