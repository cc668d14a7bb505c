package price

import (
	"context"

	"lendhub/core"

	"github.com/fox-one/pkg/store/db"
)

type priceStore struct {
	db *db.DB
}

// New new price store
func New(db *db.DB) core.IPriceStore {
	return &priceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Price{})
		if err := tx.AutoMigrate(core.Price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *priceStore) Save(ctx context.Context, tx *db.DB, price *core.Price) error {
	if price.ID == 0 {
		return tx.Update().Create(price).Error
	}

	version := price.Version
	price.Version++
	return tx.Update().Model(core.Price{}).
		Where("id=? and version=?", price.ID, version).
		Update(price).Error
}

func (s *priceStore) Find(ctx context.Context, poolID uint64) (*core.Price, error) {
	var price core.Price
	if err := s.db.View().Where("pool_id=?", poolID).First(&price).Error; err != nil {
		return nil, err
	}

	return &price, nil
}
