package priceoracle

import (
	"context"
	"time"

	"lendhub/core"
	"lendhub/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

// Worker polls the remote feed and stores the latest price per pool.
type Worker struct {
	worker.TickWorker
	db           *db.DB
	poolStore    core.IPoolStore
	priceStore   core.IPriceStore
	priceService core.IPriceOracleService
}

// New new price oracle worker
func New(
	db *db.DB,
	poolStore core.IPoolStore,
	priceStore core.IPriceStore,
	priceService core.IPriceOracleService) *Worker {

	return &Worker{
		db:           db,
		poolStore:    poolStore,
		priceStore:   priceStore,
		priceService: priceService,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "priceoracle")
	now := time.Now()

	pools, err := w.poolStore.All(ctx)
	if err != nil {
		return err
	}

	for _, pool := range pools {
		ticker, err := w.priceService.PullPriceTicker(ctx, pool.Symbol, now)
		if err != nil {
			log.WithError(err).Errorln("pull ticker:", pool.Symbol)
			continue
		}

		if !ticker.Price.IsPositive() {
			log.Warningln("non-positive ticker price:", pool.Symbol)
			continue
		}

		price, err := w.priceStore.Find(ctx, pool.ID)
		if err != nil {
			if !gorm.IsRecordNotFoundError(err) {
				return err
			}
			price = &core.Price{PoolID: pool.ID}
		}

		price.Price = ticker.Price
		price.PricedAt = now

		if err := w.db.Tx(func(tx *db.DB) error {
			return w.priceStore.Save(ctx, tx, price)
		}); err != nil {
			return err
		}
	}

	return nil
}
