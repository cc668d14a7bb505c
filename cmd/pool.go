package cmd

import (
	"strings"

	"lendhub/core"
	"lendhub/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var addPoolCmd = &cobra.Command{
	Use:     "add-pool",
	Aliases: []string{"ap"},
	Short:   "add a lending pool",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		symbol, e := cmd.Flags().GetString("symbol")
		if e != nil || symbol == "" {
			panic("invalid symbol")
		}
		assetID, _ := cmd.Flags().GetString("asset")
		poolID, e := cmd.Flags().GetUint64("id")
		if e != nil || poolID == 0 {
			panic("invalid pool id")
		}

		pool := &core.Pool{
			ID:                             poolID,
			Symbol:                         strings.ToUpper(symbol),
			AssetID:                        assetID,
			DepositIndex:                   decimal.New(1, 0),
			VariableBorrowIndex:            decimal.New(1, 0),
			OptimalUtilisation:             flagDecimal(cmd, "uopt", "0.8"),
			VariableRate0:                  flagDecimal(cmd, "vr0", "0.01"),
			VariableRate1:                  flagDecimal(cmd, "vr1", "0.04"),
			VariableRate2:                  flagDecimal(cmd, "vr2", "0.75"),
			StableRate0:                    flagDecimal(cmd, "sr0", "0.02"),
			StableRate1:                    flagDecimal(cmd, "sr1", "0.05"),
			StableRate2:                    flagDecimal(cmd, "sr2", "0.5"),
			StableRate3:                    flagDecimal(cmd, "sr3", "0.3"),
			OptimalStableToTotalDebtRatio:  flagDecimal(cmd, "sopt", "0.3"),
			RebalanceUpUtilisationRatio:    flagDecimal(cmd, "rebalance-up-util", "0.95"),
			RebalanceUpDepositInterestRate: flagDecimal(cmd, "rebalance-up-ratio", "0.9"),
			RebalanceDownDelta:             flagDecimal(cmd, "rebalance-down-delta", "0.1"),
			RetentionRate:                  flagDecimal(cmd, "retention", "0.1"),
			FlashLoanFee:                   flagDecimal(cmd, "flash-loan-fee", "0.0009"),
			DepositCap:                     flagDecimal(cmd, "deposit-cap", "0"),
			BorrowCap:                      flagDecimal(cmd, "borrow-cap", "0"),
			StableBorrowPercentageCap:      flagDecimal(cmd, "stable-cap", "0.25"),
			StableBorrowSupported:          cast.ToBool(flagString(cmd, "stable", "true")),
			CanMintReceipt:                 true,
		}

		if err := database.Tx(func(tx *db.DB) error {
			return providePoolStore(database).Save(ctx, tx, pool)
		}); err != nil {
			cmd.PrintErrln("save pool error:", err)
			return
		}

		cmd.Println("pool created:", pool.ID, pool.Symbol)
	},
}

var addLoanTypeCmd = &cobra.Command{
	Use:     "add-loan-type",
	Aliases: []string{"alt"},
	Short:   "add a loan type",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		id, e := cmd.Flags().GetUint64("id")
		if e != nil || id == 0 {
			panic("invalid loan type id")
		}
		name, _ := cmd.Flags().GetString("name")

		loanType := &core.LoanType{ID: id, Name: name}

		if err := database.Tx(func(tx *db.DB) error {
			return provideLoanTypeStore(database).Save(ctx, tx, loanType)
		}); err != nil {
			cmd.PrintErrln("save loan type error:", err)
			return
		}

		cmd.Println("loan type created:", loanType.ID, loanType.Name)
	},
}

var addLoanTypePoolCmd = &cobra.Command{
	Use:     "add-loan-type-pool",
	Aliases: []string{"altp"},
	Short:   "enable a pool for a loan type with risk parameters",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		loanTypeID, e := cmd.Flags().GetUint64("loan-type")
		if e != nil || loanTypeID == 0 {
			panic("invalid loan type id")
		}
		poolID, e := cmd.Flags().GetUint64("pool")
		if e != nil || poolID == 0 {
			panic("invalid pool id")
		}

		ltp := &core.LoanTypePool{
			LoanTypeID:            loanTypeID,
			PoolID:                poolID,
			CollateralFactor:      flagDecimal(cmd, "collateral-factor", "0.75"),
			BorrowFactor:          flagDecimal(cmd, "borrow-factor", "1"),
			LiquidationBonus:      flagDecimal(cmd, "liquidation-bonus", "0.05"),
			CollateralCap:         flagDecimal(cmd, "collateral-cap", "0"),
			CollateralRewardSpeed: flagDecimal(cmd, "collateral-reward-speed", "0"),
			BorrowRewardSpeed:     flagDecimal(cmd, "borrow-reward-speed", "0"),
		}

		if err := database.Tx(func(tx *db.DB) error {
			return provideLoanTypeStore(database).SavePool(ctx, tx, ltp)
		}); err != nil {
			cmd.PrintErrln("save loan type pool error:", err)
			return
		}

		cmd.Println("loan type pool created:", ltp.LoanTypeID, ltp.PoolID)
	},
}

func flagString(cmd *cobra.Command, name, fallback string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func flagDecimal(cmd *cobra.Command, name, fallback string) decimal.Decimal {
	return number.Decimal(flagString(cmd, name, fallback))
}

func init() {
	addPoolCmd.Flags().Uint64("id", 0, "pool id")
	addPoolCmd.Flags().String("symbol", "", "pool symbol")
	addPoolCmd.Flags().String("asset", "", "underlying asset id")
	addPoolCmd.Flags().String("uopt", "", "optimal utilisation")
	addPoolCmd.Flags().String("vr0", "", "variable base rate")
	addPoolCmd.Flags().String("vr1", "", "variable slope below kink")
	addPoolCmd.Flags().String("vr2", "", "variable slope above kink")
	addPoolCmd.Flags().String("sr0", "", "stable premium")
	addPoolCmd.Flags().String("sr1", "", "stable slope below kink")
	addPoolCmd.Flags().String("sr2", "", "stable slope above kink")
	addPoolCmd.Flags().String("sr3", "", "stable excess-share penalty slope")
	addPoolCmd.Flags().String("sopt", "", "optimal stable share of total debt")
	addPoolCmd.Flags().String("rebalance-up-util", "", "rebalance up utilisation trigger")
	addPoolCmd.Flags().String("rebalance-up-ratio", "", "rebalance up deposit rate ratio")
	addPoolCmd.Flags().String("rebalance-down-delta", "", "rebalance down offer rate delta")
	addPoolCmd.Flags().String("retention", "", "retention rate")
	addPoolCmd.Flags().String("flash-loan-fee", "", "flash loan fee rate")
	addPoolCmd.Flags().String("deposit-cap", "", "usd deposit cap, 0 for unlimited")
	addPoolCmd.Flags().String("borrow-cap", "", "usd borrow cap, 0 for unlimited")
	addPoolCmd.Flags().String("stable-cap", "", "stable share cap of total debt")
	addPoolCmd.Flags().String("stable", "", "enable stable borrows")

	addLoanTypeCmd.Flags().Uint64("id", 0, "loan type id")
	addLoanTypeCmd.Flags().String("name", "", "loan type name")

	addLoanTypePoolCmd.Flags().Uint64("loan-type", 0, "loan type id")
	addLoanTypePoolCmd.Flags().Uint64("pool", 0, "pool id")
	addLoanTypePoolCmd.Flags().String("collateral-factor", "", "collateral value discount")
	addLoanTypePoolCmd.Flags().String("borrow-factor", "", "debt value weight")
	addLoanTypePoolCmd.Flags().String("liquidation-bonus", "", "liquidator seize premium")
	addLoanTypePoolCmd.Flags().String("collateral-cap", "", "usd collateral cap, 0 for unlimited")
	addLoanTypePoolCmd.Flags().String("collateral-reward-speed", "", "reward units per second for depositors")
	addLoanTypePoolCmd.Flags().String("borrow-reward-speed", "", "reward units per second for borrowers")

	rootCmd.AddCommand(addPoolCmd)
	rootCmd.AddCommand(addLoanTypeCmd)
	rootCmd.AddCommand(addLoanTypePoolCmd)
}
