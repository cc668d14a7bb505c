package loantype

import (
	"context"

	"lendhub/core"

	"github.com/fox-one/pkg/store/db"
)

type loanTypeStore struct {
	db *db.DB
}

// New new loan type store
func New(db *db.DB) core.ILoanTypeStore {
	return &loanTypeStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update()
		if err := tx.AutoMigrate(core.LoanType{}).Error; err != nil {
			return err
		}
		if err := tx.AutoMigrate(core.LoanTypePool{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *loanTypeStore) Save(ctx context.Context, tx *db.DB, loanType *core.LoanType) error {
	if err := tx.Update().Create(loanType).Error; err != nil {
		return err
	}
	return nil
}

func (s *loanTypeStore) SavePool(ctx context.Context, tx *db.DB, pool *core.LoanTypePool) error {
	if pool.ID == 0 {
		return tx.Update().Create(pool).Error
	}

	version := pool.Version
	pool.Version++
	return tx.Update().Model(core.LoanTypePool{}).
		Where("id=? and version=?", pool.ID, version).
		Update(pool).Error
}

func (s *loanTypeStore) Find(ctx context.Context, id uint64) (*core.LoanType, error) {
	var loanType core.LoanType
	if err := s.db.View().Where("id=?", id).First(&loanType).Error; err != nil {
		return nil, err
	}

	return &loanType, nil
}

func (s *loanTypeStore) FindWithPools(ctx context.Context, id uint64) (*core.LoanType, error) {
	loanType, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.View().Where("loan_type_id=?", id).Find(&loanType.Pools).Error; err != nil {
		return nil, err
	}

	return loanType, nil
}

func (s *loanTypeStore) All(ctx context.Context) ([]*core.LoanType, error) {
	var loanTypes []*core.LoanType
	if err := s.db.View().Find(&loanTypes).Error; err != nil {
		return nil, err
	}
	return loanTypes, nil
}
