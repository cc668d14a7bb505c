package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"lendhub/worker"
	"lendhub/worker/payee"
	"lendhub/worker/priceoracle"
	"lendhub/worker/reward"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "run lendhub workers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := logrus.WithField("run", uuid.New())
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		propertyStore := providePropertyStore(database)
		poolStore := providePoolStore(database)
		loanStore := provideLoanStore(database)
		loanTypeStore := provideLoanTypeStore(database)
		priceStore := providePriceStore(database)
		rewardStore := provideRewardStore(database)
		messageStore := provideMessageStore(database)
		transactionStore := provideTransactionStore(database)

		priceService := providePriceService(database)
		poolService := providePoolService(database)
		loanService := provideLoanService(database)
		rewardService := provideRewardService()

		interval := cfg.PriceOracle.Interval
		if interval <= 0 {
			interval = time.Minute
		}

		rewardWorker := reward.New(database, poolStore, loanStore, loanTypeStore, rewardStore, rewardService)
		rewardWorker.Delay = time.Minute

		priceWorker := priceoracle.New(database, poolStore, priceStore, priceService)
		priceWorker.Delay = interval

		workers := map[string]worker.Worker{
			"payee": payee.NewPayee(
				database,
				propertyStore,
				messageStore,
				poolStore,
				loanStore,
				loanTypeStore,
				rewardStore,
				transactionStore,
				poolService,
				loanService,
				rewardService,
			),
			"reward":      rewardWorker,
			"priceoracle": priceWorker,
		}

		g, ctx := errgroup.WithContext(ctx)
		for name, w := range workers {
			name, w := name, w
			g.Go(func() error {
				log.Infoln("start worker", name)
				return w.Run(ctx)
			})
		}

		if err := g.Wait(); err != nil {
			fmt.Println(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
