package reward

import (
	"context"

	"lendhub/core"

	"github.com/fox-one/pkg/store/db"
)

type rewardStore struct {
	db *db.DB
}

// New new reward store
func New(db *db.DB) core.IRewardStore {
	return &rewardStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update()
		if err := tx.AutoMigrate(core.PoolReward{}).Error; err != nil {
			return err
		}
		if err := tx.AutoMigrate(core.LoanReward{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *rewardStore) SavePoolReward(ctx context.Context, tx *db.DB, reward *core.PoolReward) error {
	if reward.ID == 0 {
		return tx.Update().Create(reward).Error
	}

	version := reward.Version
	reward.Version++
	return tx.Update().Model(core.PoolReward{}).
		Where("id=? and version=?", reward.ID, version).
		Update(reward).Error
}

func (s *rewardStore) FindPoolReward(ctx context.Context, loanTypeID, poolID uint64) (*core.PoolReward, error) {
	var reward core.PoolReward
	if err := s.db.View().Where("loan_type_id=? and pool_id=?", loanTypeID, poolID).First(&reward).Error; err != nil {
		return nil, err
	}

	return &reward, nil
}

func (s *rewardStore) PoolRewardsByLoanType(ctx context.Context, loanTypeID uint64) ([]*core.PoolReward, error) {
	var rewards []*core.PoolReward
	if err := s.db.View().Where("loan_type_id=?", loanTypeID).Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (s *rewardStore) SaveLoanReward(ctx context.Context, tx *db.DB, reward *core.LoanReward) error {
	if reward.ID == 0 {
		return tx.Update().Create(reward).Error
	}

	version := reward.Version
	reward.Version++
	return tx.Update().Model(core.LoanReward{}).
		Where("id=? and version=?", reward.ID, version).
		Update(reward).Error
}

func (s *rewardStore) FindLoanReward(ctx context.Context, loanID string) (*core.LoanReward, error) {
	var reward core.LoanReward
	if err := s.db.View().Where("loan_id=?", loanID).First(&reward).Error; err != nil {
		return nil, err
	}

	return &reward, nil
}
