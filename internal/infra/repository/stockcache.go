package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
)

const stockLevelTTL = 60 // seconds

// StockCache stores summed stock levels per SKU in memcached.
type StockCache struct {
	mc *memcache.Client
}

func NewStockCache(mc *memcache.Client) *StockCache {
	return &StockCache{mc: mc}
}

func (c *StockCache) GetLevel(ctx context.Context, sku string) (int, bool) {
	item, err := c.mc.Get(stockLevelKey(sku))
	if err != nil {
		return 0, false
	}
	level, err := strconv.Atoi(string(item.Value))
	if err != nil {
		return 0, false
	}
	return level, true
}

func (c *StockCache) SetLevel(ctx context.Context, sku string, available int) error {
	return c.mc.Set(&memcache.Item{
		Key:        stockLevelKey(sku),
		Value:      []byte(strconv.Itoa(available)),
		Expiration: stockLevelTTL,
	})
}

func (c *StockCache) Invalidate(ctx context.Context, sku string) error {
	err := c.mc.Delete(stockLevelKey(sku))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func stockLevelKey(sku string) string {
	return "stock:" + sku
}
