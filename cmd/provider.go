package cmd

import (
	"lendhub/core"
	loanservice "lendhub/service/loan"
	"lendhub/service/oracle"
	poolservice "lendhub/service/pool"
	rewardservice "lendhub/service/reward"
	"lendhub/store/loan"
	"lendhub/store/loantype"
	"lendhub/store/message"
	"lendhub/store/pool"
	"lendhub/store/price"
	"lendhub/store/reward"
	"lendhub/store/transaction"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func providePoolStore(db *db.DB) core.IPoolStore {
	return pool.New(db)
}

func provideLoanStore(db *db.DB) core.ILoanStore {
	return loan.New(db)
}

func provideLoanTypeStore(db *db.DB) core.ILoanTypeStore {
	return loantype.New(db)
}

func providePriceStore(db *db.DB) core.IPriceStore {
	return price.New(db)
}

func provideRewardStore(db *db.DB) core.IRewardStore {
	return reward.New(db)
}

func provideMessageStore(db *db.DB) core.IMessageStore {
	return message.New(db)
}

func provideTransactionStore(db *db.DB) core.ITransactionStore {
	return transaction.New(db)
}

// ------------------service------------------------------------

func providePriceService(db *db.DB) core.IPriceOracleService {
	return oracle.New(provideConfig(), providePriceStore(db))
}

func providePoolService(db *db.DB) core.IPoolService {
	return poolservice.New(providePriceService(db))
}

func provideLoanService(db *db.DB) core.ILoanService {
	return loanservice.New(providePoolService(db), providePriceService(db))
}

func provideRewardService() core.IRewardService {
	return rewardservice.New()
}
