package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Price latest oracle price for a pool's underlying asset.
type Price struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	PoolID    uint64          `sql:"unique_index:idx_prices_pool" json:"pool_id"`
	Price     decimal.Decimal `sql:"type:decimal(32,16)" json:"price"`
	Decimals  int32           `sql:"default:8" json:"decimals"`
	Version   int64           `sql:"default:0" json:"version"`
	PricedAt  time.Time       `json:"priced_at"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// PriceTicker ticker pulled from the remote feed
type PriceTicker struct {
	Provider string          `json:"provider,omitempty"`
	Symbol   string          `json:"symbol,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
}

// IPriceStore price store interface
type IPriceStore interface {
	Save(ctx context.Context, tx *db.DB, price *Price) error
	Find(ctx context.Context, poolID uint64) (*Price, error)
}

// IPriceOracleService read-only price collaborator. The core does not
// freshness-check beyond what the feed returns.
type IPriceOracleService interface {
	GetPrice(ctx context.Context, poolID uint64) (decimal.Decimal, error)
	PullPriceTicker(ctx context.Context, symbol string, t time.Time) (*PriceTicker, error)
}
