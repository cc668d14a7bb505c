package loan

import (
	"context"

	"lendhub/core"
	"lendhub/internal/hub"
	"lendhub/pkg/id"
	"lendhub/pkg/lending"
	"lendhub/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type loanService struct {
	poolService  core.IPoolService
	priceService core.IPriceOracleService
}

// New new loan service
func New(poolService core.IPoolService, priceService core.IPriceOracleService) core.ILoanService {
	return &loanService{
		poolService:  poolService,
		priceService: priceService,
	}
}

func (s *loanService) CreateLoan(ctx context.Context, accountID, nonce string, loanType *core.LoanType) (*core.Loan, error) {
	if loanType == nil {
		return nil, core.ErrLoanTypeUnknown
	}

	if loanType.Deprecated {
		return nil, core.ErrLoanTypeDeprecated
	}

	return &core.Loan{
		ID:         id.LoanID(accountID, nonce),
		AccountID:  accountID,
		LoanTypeID: loanType.ID,
		Active:     true,
	}, nil
}

func (s *loanService) DeleteLoan(ctx context.Context, loan *core.Loan) error {
	if !loan.IsEmpty() {
		return core.ErrLoanNotEmpty
	}

	// tombstone; the row survives so a later lookup reports unknown
	loan.Active = false
	return nil
}

func (s *loanService) Deposit(ctx context.Context, loan *core.Loan, pool *core.Pool, loanType *core.LoanType, amount, rewardIndex decimal.Decimal) (decimal.Decimal, error) {
	ltp := loanType.Pool(pool.ID)
	if ltp == nil {
		return decimal.Zero, core.ErrOperationForbidden
	}

	c := loan.Collateral(pool.ID)

	if ltp.CollateralCap.IsPositive() {
		price, err := s.price(ctx, pool.ID)
		if err != nil {
			return decimal.Zero, err
		}

		held := decimal.Zero
		if c != nil {
			held = hub.ToUnderlyingAmount(c.Balance, pool.DepositIndex)
		}
		if value := held.Add(amount).Mul(price); value.GreaterThan(ltp.CollateralCap) {
			return decimal.Zero, core.CapReachedError{
				Code:    core.ErrCollateralCapReached,
				Current: value,
				Limit:   ltp.CollateralCap,
			}
		}
	}

	receipt, err := s.poolService.ApplyDeposit(ctx, pool, amount)
	if err != nil {
		return decimal.Zero, err
	}

	if c == nil {
		c = &core.LoanCollateral{
			LoanID:      loan.ID,
			PoolID:      pool.ID,
			RewardIndex: rewardIndex,
		}
		loan.Collaterals = append(loan.Collaterals, c)
	}
	c.Balance = c.Balance.Add(receipt)

	return receipt, nil
}

func (s *loanService) Withdraw(ctx context.Context, loan *core.Loan, pools map[uint64]*core.Pool, loanType *core.LoanType, poolID uint64, amount decimal.Decimal, isReceiptAmount, checkOverCollateralization bool) (*core.WithdrawResult, error) {
	pool, ok := pools[poolID]
	if !ok {
		return nil, core.ErrUnknownPool
	}

	c := loan.Collateral(poolID)
	if c == nil {
		return nil, core.ErrUnknownCollateralPosition
	}

	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	var receipt, underlying decimal.Decimal
	if isReceiptAmount {
		receipt = decimal.Min(amount, c.Balance)
		underlying = hub.ToUnderlyingAmount(receipt, pool.DepositIndex)
	} else {
		// burn rounds up so the pool never hands out more than is backed
		receipt = hub.ToReceiptAmount(amount, pool.DepositIndex, true)
		if receipt.GreaterThanOrEqual(c.Balance) {
			receipt = c.Balance
			underlying = hub.ToUnderlyingAmount(receipt, pool.DepositIndex)
		} else {
			underlying = amount
		}
	}

	if err := s.poolService.ApplyWithdraw(ctx, pool, underlying); err != nil {
		return nil, err
	}

	c.Balance = number.NonNegative(c.Balance.Sub(receipt))
	if c.Balance.IsZero() {
		loan.RemoveCollateral(poolID)
	}

	if checkOverCollateralization {
		ok, err := s.IsOverCollateralized(ctx, loan, pools, loanType)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, core.ErrUnderCollateralized
		}
	}

	return &core.WithdrawResult{
		ReceiptBurned:       receipt,
		UnderlyingWithdrawn: underlying,
	}, nil
}

func (s *loanService) Borrow(ctx context.Context, loan *core.Loan, pools map[uint64]*core.Pool, loanType *core.LoanType, poolID uint64, amount, maxStableRate, rewardIndex decimal.Decimal) (*core.BorrowResult, error) {
	pool, ok := pools[poolID]
	if !ok {
		return nil, core.ErrUnknownPool
	}

	if loanType.Pool(poolID) == nil {
		return nil, core.ErrOperationForbidden
	}

	stable := maxStableRate.IsPositive()

	b := loan.Borrow(poolID)
	if b != nil && b.Stable != stable {
		return nil, core.ErrOperationForbidden
	}

	snapshot, err := s.poolService.PrepareBorrow(ctx, pool, amount, stable, maxStableRate)
	if err != nil {
		return nil, err
	}

	if err := s.poolService.ApplyBorrow(ctx, pool, amount, stable, snapshot.StableBorrowRate); err != nil {
		return nil, err
	}

	if b == nil {
		b = &core.LoanBorrow{
			LoanID:              loan.ID,
			PoolID:              poolID,
			Stable:              stable,
			LastInterestIndex:   snapshot.VariableBorrowIndex,
			LastStableUpdatedAt: pool.LastUpdatedAt,
			RewardIndex:         rewardIndex,
		}
		if stable {
			b.StableInterestRate = snapshot.StableBorrowRate
		}
		loan.Borrows = append(loan.Borrows, b)
	} else {
		lending.SettleBorrowInterest(b, pool, pool.LastUpdatedAt)
		if stable {
			b.StableInterestRate = hub.IncreasingAverageStableRate(
				amount, snapshot.StableBorrowRate,
				b.Balance, b.StableInterestRate,
			)
		}
	}

	b.Amount = b.Amount.Add(amount)
	b.Balance = b.Balance.Add(amount)

	ok, err = s.IsOverCollateralized(ctx, loan, pools, loanType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrUnderCollateralized
	}

	return &core.BorrowResult{
		Stable:     stable,
		StableRate: b.StableInterestRate,
	}, nil
}

func (s *loanService) Repay(ctx context.Context, loan *core.Loan, pool *core.Pool, amount, maxOverRepayment decimal.Decimal) (*core.RepayResult, error) {
	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	b := loan.Borrow(pool.ID)
	if b == nil {
		return nil, core.ErrUnknownBorrowPosition
	}

	lending.SettleBorrowInterest(b, pool, pool.LastUpdatedAt)

	owed := b.Balance
	excess := number.NonNegative(amount.Sub(owed))
	if excess.GreaterThan(maxOverRepayment) {
		return nil, core.ErrExcessRepaymentExceeded
	}

	paid := decimal.Min(amount, owed)
	interestPaid := decimal.Min(paid, number.NonNegative(owed.Sub(b.Amount)))
	principalPaid := paid.Sub(interestPaid)

	if err := s.poolService.ApplyRepay(ctx, pool, principalPaid, interestPaid, excess, b.Stable, b.StableInterestRate); err != nil {
		return nil, err
	}

	b.Balance = number.NonNegative(b.Balance.Sub(paid))
	b.Amount = number.NonNegative(b.Amount.Sub(principalPaid))

	closed := b.Balance.IsZero()
	if closed {
		loan.RemoveBorrow(pool.ID)
	}

	return &core.RepayResult{
		PrincipalPaid:  principalPaid,
		InterestPaid:   interestPaid,
		ExcessRetained: excess,
		PositionClosed: closed,
	}, nil
}

func (s *loanService) RepayWithCollateral(ctx context.Context, loan *core.Loan, pool *core.Pool, amount decimal.Decimal) (*core.RepayResult, error) {
	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	b := loan.Borrow(pool.ID)
	if b == nil {
		return nil, core.ErrUnknownBorrowPosition
	}

	c := loan.Collateral(pool.ID)
	if c == nil {
		return nil, core.ErrUnknownCollateralPosition
	}

	lending.SettleBorrowInterest(b, pool, pool.LastUpdatedAt)

	available := hub.ToUnderlyingAmount(c.Balance, pool.DepositIndex)
	paid := decimal.Min(decimal.Min(amount, b.Balance), available)
	if !paid.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	receipt := hub.ToReceiptAmount(paid, pool.DepositIndex, true)
	if receipt.GreaterThan(c.Balance) {
		receipt = c.Balance
	}

	if err := s.poolService.ApplyWithdraw(ctx, pool, paid); err != nil {
		return nil, err
	}

	interestPaid := decimal.Min(paid, number.NonNegative(b.Balance.Sub(b.Amount)))
	principalPaid := paid.Sub(interestPaid)

	if err := s.poolService.ApplyRepay(ctx, pool, principalPaid, interestPaid, decimal.Zero, b.Stable, b.StableInterestRate); err != nil {
		return nil, err
	}

	c.Balance = number.NonNegative(c.Balance.Sub(receipt))
	if c.Balance.IsZero() {
		loan.RemoveCollateral(pool.ID)
	}

	b.Balance = number.NonNegative(b.Balance.Sub(paid))
	b.Amount = number.NonNegative(b.Amount.Sub(principalPaid))

	closed := b.Balance.IsZero()
	if closed {
		loan.RemoveBorrow(pool.ID)
	}

	return &core.RepayResult{
		PrincipalPaid:  principalPaid,
		InterestPaid:   interestPaid,
		PositionClosed: closed,
	}, nil
}

func (s *loanService) Liquidate(ctx context.Context, violator, liquidator *core.Loan, pools map[uint64]*core.Pool, loanType *core.LoanType, colPoolID, borPoolID uint64, maxRepayAmount, minSeizedAmount, colRewardIndex decimal.Decimal) (*core.LiquidationResult, error) {
	if violator.ID == liquidator.ID {
		return nil, core.ErrSameLoan
	}

	borPool, ok := pools[borPoolID]
	if !ok {
		return nil, core.ErrUnknownPool
	}
	colPool, ok := pools[colPoolID]
	if !ok {
		return nil, core.ErrUnknownPool
	}

	b := violator.Borrow(borPoolID)
	if b == nil {
		return nil, core.ErrUnknownBorrowPosition
	}
	c := violator.Collateral(colPoolID)
	if c == nil {
		return nil, core.ErrUnknownCollateralPosition
	}

	healthy, err := s.IsOverCollateralized(ctx, violator, pools, loanType)
	if err != nil {
		return nil, err
	}
	if healthy {
		return nil, core.ErrLoanIsHealthy
	}

	ltp := loanType.Pool(colPoolID)
	if ltp == nil {
		return nil, core.ErrOperationForbidden
	}

	borPrice, err := s.price(ctx, borPoolID)
	if err != nil {
		return nil, err
	}
	colPrice, err := s.price(ctx, colPoolID)
	if err != nil {
		return nil, err
	}

	lending.SettleBorrowInterest(b, borPool, borPool.LastUpdatedAt)

	// close the whole position; scale down when the collateral cannot
	// cover the bonus-adjusted seize
	bonus := decimal.New(1, 0).Add(ltp.LiquidationBonus)
	repay := b.Balance
	seizedUnderlying := repay.Mul(borPrice).Div(colPrice).Mul(bonus).Truncate(hub.MaxPrecision)
	seizedReceipt := hub.ToReceiptAmount(seizedUnderlying, colPool.DepositIndex, false)

	if seizedReceipt.GreaterThan(c.Balance) {
		seizedReceipt = c.Balance
		seizedUnderlying = hub.ToUnderlyingAmount(seizedReceipt, colPool.DepositIndex)
		repay = seizedUnderlying.Mul(colPrice).Div(borPrice.Mul(bonus)).Truncate(hub.MaxPrecision)
	}

	if repay.GreaterThan(maxRepayAmount) {
		return nil, core.ErrRepayExceedsMax
	}
	if seizedReceipt.LessThan(minSeizedAmount) {
		return nil, core.ErrSeizedLessThanMinimum
	}

	interestPaid := decimal.Min(repay, number.NonNegative(b.Balance.Sub(b.Amount)))
	principalPaid := repay.Sub(interestPaid)

	if err := s.poolService.ApplyRepay(ctx, borPool, principalPaid, interestPaid, decimal.Zero, b.Stable, b.StableInterestRate); err != nil {
		return nil, err
	}

	b.Balance = number.NonNegative(b.Balance.Sub(repay))
	b.Amount = number.NonNegative(b.Amount.Sub(principalPaid))
	if b.Balance.IsZero() {
		violator.RemoveBorrow(borPoolID)
	}

	// seized receipt moves between loans; the deposit ledger is untouched
	c.Balance = number.NonNegative(c.Balance.Sub(seizedReceipt))
	if c.Balance.IsZero() {
		violator.RemoveCollateral(colPoolID)
	}

	lc := liquidator.Collateral(colPoolID)
	if lc == nil {
		lc = &core.LoanCollateral{
			LoanID:      liquidator.ID,
			PoolID:      colPoolID,
			RewardIndex: colRewardIndex,
		}
		liquidator.Collaterals = append(liquidator.Collaterals, lc)
	}
	lc.Balance = lc.Balance.Add(seizedReceipt)

	if err := s.poolService.ApplyLiquidation(ctx, borPool); err != nil {
		return nil, err
	}
	if err := s.poolService.ApplyLiquidation(ctx, colPool); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithField("violator", violator.ID).
		WithField("repay", repay).WithField("seized", seizedReceipt).
		Infoln("loan liquidated")

	return &core.LiquidationResult{
		RepayPrincipal: principalPaid,
		RepayInterest:  interestPaid,
		SeizedReceipt:  seizedReceipt,
	}, nil
}

func (s *loanService) SwitchBorrowType(ctx context.Context, loan *core.Loan, pool *core.Pool, maxStableRate decimal.Decimal) error {
	b := loan.Borrow(pool.ID)
	if b == nil {
		return core.ErrUnknownBorrowPosition
	}

	lending.SettleBorrowInterest(b, pool, pool.LastUpdatedAt)

	toStable := !b.Stable
	if toStable && maxStableRate.IsPositive() && pool.StableBorrowInterestRate.GreaterThan(maxStableRate) {
		return core.MaxStableRateExceededError{
			Current: pool.StableBorrowInterestRate,
			Max:     maxStableRate,
		}
	}

	newRate := pool.StableBorrowInterestRate
	if err := s.poolService.ApplySwitchBorrowType(ctx, pool, b.Balance, toStable, b.StableInterestRate, newRate); err != nil {
		return err
	}

	b.Stable = toStable
	if toStable {
		b.StableInterestRate = newRate
		b.LastStableUpdatedAt = pool.LastUpdatedAt
	} else {
		b.StableInterestRate = decimal.Zero
		b.LastInterestIndex = pool.VariableBorrowIndex
	}

	return nil
}

func (s *loanService) RebalanceUp(ctx context.Context, loan *core.Loan, pool *core.Pool) error {
	return s.rebalance(ctx, loan, pool, true)
}

func (s *loanService) RebalanceDown(ctx context.Context, loan *core.Loan, pool *core.Pool) error {
	return s.rebalance(ctx, loan, pool, false)
}

func (s *loanService) rebalance(ctx context.Context, loan *core.Loan, pool *core.Pool, up bool) error {
	b := loan.Borrow(pool.ID)
	if b == nil || !b.Stable {
		return core.ErrUnknownBorrowPosition
	}

	if up {
		if err := s.poolService.ValidateRebalanceUp(ctx, pool); err != nil {
			return err
		}
	} else {
		if err := s.poolService.ValidateRebalanceDown(ctx, pool, b.StableInterestRate); err != nil {
			return err
		}
	}

	lending.SettleBorrowInterest(b, pool, pool.LastUpdatedAt)

	oldRate := b.StableInterestRate
	newRate := pool.StableBorrowInterestRate
	if err := s.poolService.ApplyRebalance(ctx, pool, b.Balance, oldRate, newRate); err != nil {
		return err
	}

	b.StableInterestRate = newRate
	b.LastStableUpdatedAt = pool.LastUpdatedAt
	return nil
}

func (s *loanService) IsOverCollateralized(ctx context.Context, loan *core.Loan, pools map[uint64]*core.Pool, loanType *core.LoanType) (bool, error) {
	effectiveCollateral := decimal.Zero
	effectiveDebt := decimal.Zero

	for _, c := range loan.Collaterals {
		pool, ok := pools[c.PoolID]
		if !ok {
			return false, core.ErrUnknownPool
		}

		ltp := loanType.Pool(c.PoolID)
		if ltp == nil || !ltp.CollateralFactor.IsPositive() {
			continue
		}

		price, err := s.price(ctx, c.PoolID)
		if err != nil {
			return false, err
		}

		underlying := hub.ToUnderlyingAmount(c.Balance, pool.DepositIndex)
		effectiveCollateral = effectiveCollateral.
			Add(underlying.Mul(price).Mul(ltp.CollateralFactor))
	}

	for _, b := range loan.Borrows {
		pool, ok := pools[b.PoolID]
		if !ok {
			return false, core.ErrUnknownPool
		}

		price, err := s.price(ctx, b.PoolID)
		if err != nil {
			return false, err
		}

		factor := decimal.New(1, 0)
		if ltp := loanType.Pool(b.PoolID); ltp != nil && ltp.BorrowFactor.IsPositive() {
			factor = ltp.BorrowFactor
		}

		balance := lending.BorrowBalance(b, pool, pool.LastUpdatedAt)
		effectiveDebt = effectiveDebt.Add(balance.Mul(price).Mul(factor))
	}

	return effectiveCollateral.GreaterThanOrEqual(effectiveDebt), nil
}

func (s *loanService) price(ctx context.Context, poolID uint64) (decimal.Decimal, error) {
	price, err := s.priceService.GetPrice(ctx, poolID)
	if err != nil {
		return decimal.Zero, err
	}

	if !price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return price, nil
}
