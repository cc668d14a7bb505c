package reward

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

// Worker periodically advances the global reward indexes for every
// (loan type, pool) pair and settles every active loan's claimable rewards.
// Both passes are idempotent, so overlapping with payee-triggered settlement
// is harmless.
type Worker struct {
	worker.TickWorker
	db            *db.DB
	poolStore     core.IPoolStore
	loanStore     core.ILoanStore
	loanTypeStore core.ILoanTypeStore
	rewardStore   core.IRewardStore
	rewardService core.IRewardService
}

// New new reward worker
func New(
	db *db.DB,
	poolStore core.IPoolStore,
	loanStore core.ILoanStore,
	loanTypeStore core.ILoanTypeStore,
	rewardStore core.IRewardStore,
	rewardService core.IRewardService) *Worker {

	return &Worker{
		db:            db,
		poolStore:     poolStore,
		loanStore:     loanStore,
		loanTypeStore: loanTypeStore,
		rewardStore:   rewardStore,
		rewardService: rewardService,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "reward")
	now := time.Now()

	pools, err := w.poolStore.AllAsMap(ctx)
	if err != nil {
		return err
	}

	loanTypes, err := w.loanTypeStore.All(ctx)
	if err != nil {
		return err
	}

	// O(loan types x pools): advance the global indexes
	rewardsByLoanType := make(map[uint64]map[uint64]*core.PoolReward)
	for _, lt := range loanTypes {
		loanType, err := w.loanTypeStore.FindWithPools(ctx, lt.ID)
		if err != nil {
			return err
		}

		rewards := make(map[uint64]*core.PoolReward)
		for _, ltp := range loanType.Pools {
			reward, err := w.rewardStore.FindPoolReward(ctx, loanType.ID, ltp.PoolID)
			if err != nil {
				if !gorm.IsRecordNotFoundError(err) {
					return err
				}
				reward = &core.PoolReward{
					LoanTypeID:    loanType.ID,
					PoolID:        ltp.PoolID,
					LastUpdatedAt: now,
				}
			}

			if pool, ok := pools[ltp.PoolID]; ok {
				w.rewardService.UpdatePoolRewardIndexes(ctx, reward, pool, ltp, now)
			}
			rewards[ltp.PoolID] = reward
		}
		rewardsByLoanType[loanType.ID] = rewards

		if err := w.db.Tx(func(tx *db.DB) error {
			for _, reward := range rewards {
				if err := w.rewardStore.SavePoolReward(ctx, tx, reward); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	loans, err := w.loanStore.AllActive(ctx)
	if err != nil {
		return err
	}

	for _, l := range loans {
		loan, err := w.loanStore.FindWithPositions(ctx, l.ID)
		if err != nil {
			return err
		}

		rewards, ok := rewardsByLoanType[loan.LoanTypeID]
		if !ok {
			continue
		}

		claim, err := w.rewardStore.FindLoanReward(ctx, loan.ID)
		if err != nil {
			if !gorm.IsRecordNotFoundError(err) {
				return err
			}
			claim = &core.LoanReward{LoanID: loan.ID}
		}

		w.rewardService.SettleLoan(ctx, loan, rewards, claim)

		if err := w.db.Tx(func(tx *db.DB) error {
			for _, c := range loan.Collaterals {
				if err := w.loanStore.SaveCollateral(ctx, tx, c); err != nil {
					return err
				}
			}
			for _, b := range loan.Borrows {
				if err := w.loanStore.SaveBorrow(ctx, tx, b); err != nil {
					return err
				}
			}
			return w.rewardStore.SaveLoanReward(ctx, tx, claim)
		}); err != nil {
			log.WithError(err).Errorln("settle loan rewards:", loan.ID)
			return err
		}
	}

	return nil
}
