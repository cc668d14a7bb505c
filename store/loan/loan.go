package loan

import (
	"context"

	"lendhub/core"

	"github.com/fox-one/pkg/store/db"
)

type loanStore struct {
	db *db.DB
}

// New new loan store
func New(db *db.DB) core.ILoanStore {
	return &loanStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update()
		if err := tx.AutoMigrate(core.Loan{}).Error; err != nil {
			return err
		}
		if err := tx.AutoMigrate(core.LoanCollateral{}).Error; err != nil {
			return err
		}
		if err := tx.AutoMigrate(core.LoanBorrow{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *loanStore) Create(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	if err := tx.Update().Create(loan).Error; err != nil {
		return err
	}
	return nil
}

func (s *loanStore) Find(ctx context.Context, loanID string) (*core.Loan, error) {
	var loan core.Loan
	if err := s.db.View().Where("id=?", loanID).First(&loan).Error; err != nil {
		return nil, err
	}

	return &loan, nil
}

func (s *loanStore) FindWithPositions(ctx context.Context, loanID string) (*core.Loan, error) {
	loan, err := s.Find(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := s.db.View().Where("loan_id=?", loanID).Find(&loan.Collaterals).Error; err != nil {
		return nil, err
	}
	if err := s.db.View().Where("loan_id=?", loanID).Find(&loan.Borrows).Error; err != nil {
		return nil, err
	}

	return loan, nil
}

func (s *loanStore) FindByAccount(ctx context.Context, accountID string) ([]*core.Loan, error) {
	var loans []*core.Loan
	if err := s.db.View().Where("account_id=?", accountID).Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (s *loanStore) AllActive(ctx context.Context) ([]*core.Loan, error) {
	var loans []*core.Loan
	if err := s.db.View().Where("active=?", true).Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// explicit column maps: a struct update skips zero-value fields, which
// would silently drop active=false and stable=false
func toLoanUpdateParams(loan *core.Loan) map[string]interface{} {
	return map[string]interface{}{
		"active": loan.Active,
	}
}

func (s *loanStore) Update(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	version := loan.Version
	loan.Version++

	updates := toLoanUpdateParams(loan)
	updates["version"] = loan.Version

	if err := tx.Update().Model(core.Loan{}).Where("id=? and version=?", loan.ID, version).Updates(updates).Error; err != nil {
		return err
	}

	return nil
}

func toCollateralUpdateParams(collateral *core.LoanCollateral) map[string]interface{} {
	return map[string]interface{}{
		"balance":      collateral.Balance,
		"reward_index": collateral.RewardIndex,
	}
}

func (s *loanStore) SaveCollateral(ctx context.Context, tx *db.DB, collateral *core.LoanCollateral) error {
	if collateral.ID == 0 {
		return tx.Update().Create(collateral).Error
	}

	version := collateral.Version
	collateral.Version++

	updates := toCollateralUpdateParams(collateral)
	updates["version"] = collateral.Version

	return tx.Update().Model(core.LoanCollateral{}).
		Where("id=? and version=?", collateral.ID, version).
		Updates(updates).Error
}

func (s *loanStore) DeleteCollateral(ctx context.Context, tx *db.DB, loanID string, poolID uint64) error {
	return tx.Update().Where("loan_id=? and pool_id=?", loanID, poolID).Delete(core.LoanCollateral{}).Error
}

func toBorrowUpdateParams(borrow *core.LoanBorrow) map[string]interface{} {
	return map[string]interface{}{
		"amount":                 borrow.Amount,
		"balance":                borrow.Balance,
		"last_interest_index":    borrow.LastInterestIndex,
		"stable":                 borrow.Stable,
		"stable_interest_rate":   borrow.StableInterestRate,
		"last_stable_updated_at": borrow.LastStableUpdatedAt,
		"reward_index":           borrow.RewardIndex,
	}
}

func (s *loanStore) SaveBorrow(ctx context.Context, tx *db.DB, borrow *core.LoanBorrow) error {
	if borrow.ID == 0 {
		return tx.Update().Create(borrow).Error
	}

	version := borrow.Version
	borrow.Version++

	updates := toBorrowUpdateParams(borrow)
	updates["version"] = borrow.Version

	return tx.Update().Model(core.LoanBorrow{}).
		Where("id=? and version=?", borrow.ID, version).
		Updates(updates).Error
}

func (s *loanStore) DeleteBorrow(ctx context.Context, tx *db.DB, loanID string, poolID uint64) error {
	return tx.Update().Where("loan_id=? and pool_id=?", loanID, poolID).Delete(core.LoanBorrow{}).Error
}
