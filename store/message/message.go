package message

import (
	"context"

	"lendhub/core"

	"github.com/fox-one/pkg/store/db"
)

type messageStore struct {
	db *db.DB
}

// New new message store
func New(db *db.DB) core.IMessageStore {
	return &messageStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Message{})
		if err := tx.AutoMigrate(core.Message{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *messageStore) Create(ctx context.Context, tx *db.DB, message *core.Message) error {
	if err := tx.Update().Create(message).Error; err != nil {
		return err
	}
	return nil
}

func (s *messageStore) List(ctx context.Context, fromID uint64, limit int) ([]*core.Message, error) {
	var messages []*core.Message
	if err := s.db.View().
		Where("id > ?", fromID).
		Order("id").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
