package oracle

import (
	"context"
	"fmt"
	"time"

	"lendhub/core"
	"lendhub/pkg/resthttp"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// PriceService reads pool prices from the price store, caching briefly so a
// burst of actions on the same pool hits the database once.
type PriceService struct {
	config     *core.Config
	priceStore core.IPriceStore
	cache      gcache.Cache
	sf         singleflight.Group
}

// New new oracle price service
func New(config *core.Config, priceStore core.IPriceStore) core.IPriceOracleService {
	return &PriceService{
		config:     config,
		priceStore: priceStore,
		cache:      gcache.New(256).LRU().Build(),
	}
}

// GetPrice current price of the pool's underlying asset
func (s *PriceService) GetPrice(ctx context.Context, poolID uint64) (decimal.Decimal, error) {
	if v, err := s.cache.Get(poolID); err == nil {
		return v.(decimal.Decimal), nil
	}

	v, err, _ := s.sf.Do(fmt.Sprint(poolID), func() (interface{}, error) {
		price, err := s.priceStore.Find(ctx, poolID)
		if err != nil {
			return nil, err
		}

		if !price.Price.IsPositive() {
			return nil, core.ErrInvalidPrice
		}

		_ = s.cache.SetWithExpire(poolID, price.Price, 10*time.Second)
		return price.Price, nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return v.(decimal.Decimal), nil
}

// PullPriceTicker pull price ticker from the remote feed
func (s *PriceService) PullPriceTicker(ctx context.Context, symbol string, t time.Time) (*core.PriceTicker, error) {
	url := fmt.Sprintf("%s/api/v2/tickers/%s?ts=%d", s.config.PriceOracle.EndPoint, symbol, t.UTC().Unix())
	logger.FromContext(ctx).Debugln("pull price:", url)

	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var price core.PriceTicker
	if err := resthttp.ParseResponse(resp, &price); err != nil {
		return nil, err
	}

	return &price, nil
}
